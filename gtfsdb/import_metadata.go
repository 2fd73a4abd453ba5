package gtfsdb

import "context"

const getImportMetadata = `SELECT file_hash, import_time, file_source FROM import_metadata WHERE id = 1`

func (q *Queries) GetImportMetadata(ctx context.Context) (ImportMetadatum, error) {
	var i ImportMetadatum
	err := q.db.QueryRowContext(ctx, getImportMetadata).Scan(&i.FileHash, &i.ImportTime, &i.FileSource)
	return i, err
}

type UpsertImportMetadataParams struct {
	FileHash   string
	ImportTime int64
	FileSource string
}

const upsertImportMetadata = `
INSERT INTO import_metadata (id, file_hash, import_time, file_source) VALUES (1, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    file_hash = excluded.file_hash,
    import_time = excluded.import_time,
    file_source = excluded.file_source`

func (q *Queries) UpsertImportMetadata(ctx context.Context, arg UpsertImportMetadataParams) error {
	_, err := q.db.ExecContext(ctx, upsertImportMetadata, arg.FileHash, arg.ImportTime, arg.FileSource)
	return err
}

// Tables cleared before a changed feed is imported, children first.
var gtfsTables = []string{
	"stop_times",
	"shapes",
	"trips",
	"calendar_dates",
	"calendar",
	"stops",
	"routes",
	"agencies",
}

// ClearStaticData removes every imported GTFS row.
func (q *Queries) ClearStaticData(ctx context.Context) error {
	for _, table := range gtfsTables {
		if _, err := q.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}
