package gtfsdb

import (
	"context"
	"database/sql"
)

type CreateAgencyParams struct {
	ID       string
	Name     string
	Url      string
	Timezone string
	Lang     sql.NullString
	Phone    sql.NullString
}

const createAgency = `
INSERT OR REPLACE INTO agencies (id, name, url, timezone, lang, phone)
VALUES (?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateAgency(ctx context.Context, arg CreateAgencyParams) error {
	_, err := q.db.ExecContext(ctx, createAgency,
		arg.ID, arg.Name, arg.Url, arg.Timezone, arg.Lang, arg.Phone)
	return err
}

const listAgencies = `SELECT id, name, url, timezone, lang, phone FROM agencies ORDER BY id`

func (q *Queries) ListAgencies(ctx context.Context) ([]Agency, error) {
	rows, err := q.db.QueryContext(ctx, listAgencies)
	if err != nil {
		return nil, err
	}
	defer rows.Close() // nolint:errcheck

	var items []Agency
	for rows.Next() {
		var i Agency
		if err := rows.Scan(&i.ID, &i.Name, &i.Url, &i.Timezone, &i.Lang, &i.Phone); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}
