package tasks

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/depot/internal/batch"
	"github.com/mrlokans/depot/internal/database"
	"github.com/mrlokans/depot/internal/entities"
	"github.com/mrlokans/depot/internal/health"
)

type fakeRepairer struct {
	result *health.RepairResult
	err    error
	calls  int
}

func (f *fakeRepairer) RepairDatabase(ctx context.Context) (*health.RepairResult, error) {
	f.calls++
	return f.result, f.err
}

type fakeImporter struct {
	got []batch.Descriptor
	err error
}

func (f *fakeImporter) AtomicImport(ctx context.Context, descriptors []batch.Descriptor) error {
	f.got = descriptors
	return f.err
}

func TestRepairDatabaseProcessor(t *testing.T) {
	ctx := context.Background()
	task := RepairDatabaseTask{Reason: "test"}

	t.Run("healthy after repair", func(t *testing.T) {
		repairer := &fakeRepairer{result: &health.RepairResult{Fixed: 2, Healthy: true}}
		require.NoError(t, RepairDatabaseProcessor(repairer)(ctx, task))
		assert.Equal(t, 1, repairer.calls)
	})

	t.Run("still unhealthy", func(t *testing.T) {
		repairer := &fakeRepairer{result: &health.RepairResult{
			Errors: []health.RepairError{{Error: "locked"}},
		}}
		assert.Error(t, RepairDatabaseProcessor(repairer)(ctx, task))
	})

	t.Run("repair fails", func(t *testing.T) {
		boom := errors.New("boom")
		err := RepairDatabaseProcessor(&fakeRepairer{err: boom})(ctx, task)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("no repairer", func(t *testing.T) {
		assert.Error(t, RepairDatabaseProcessor(nil)(ctx, task))
	})
}

func TestImportBatchProcessor(t *testing.T) {
	ctx := context.Background()

	t.Run("decodes and imports", func(t *testing.T) {
		importer := &fakeImporter{}
		task := ImportBatchTask{Payload: []byte(`[{"store": "accounts", "operations": [{"type": "clear"}]}]`)}

		require.NoError(t, ImportBatchProcessor(importer)(ctx, task))
		require.Len(t, importer.got, 1)
		assert.Equal(t, entities.StoreAccounts, importer.got[0].Store)
	})

	t.Run("bad payload", func(t *testing.T) {
		importer := &fakeImporter{}
		task := ImportBatchTask{Payload: []byte(`[{"store": "accounts", "operations": [{"type": "merge"}]}]`)}

		err := ImportBatchProcessor(importer)(ctx, task)
		assert.ErrorIs(t, err, database.ErrUnknownOperationType)
		assert.Nil(t, importer.got)
	})

	t.Run("import fails", func(t *testing.T) {
		boom := errors.New("boom")
		task := ImportBatchTask{Payload: []byte(`[]`)}
		assert.ErrorIs(t, ImportBatchProcessor(&fakeImporter{err: boom})(ctx, task), boom)
	})
}
