package history

import (
	"context"
	"database/sql"
	_ "embed"
	"strconv"
	"strings"
	"time"

	"challan-backend/lib/sqliteutil"
)

//go:embed schema.sql
var Schema string

// SQLStore keeps the history in sqlite (or a remote libsql database).
type SQLStore struct {
	db *sql.DB
}

func OpenSQL(ctx context.Context, driver, uri string) (*SQLStore, error) {
	db, err := sqliteutil.Open(driver, uri)
	if err != nil {
		return nil, err
	}
	store, err := NewSQLStore(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// NewSQLStore applies the schema (idempotent) and wraps db.
func NewSQLStore(ctx context.Context, db *sql.DB) (*SQLStore, error) {
	_, err := db.ExecContext(ctx, Schema)
	if err != nil {
		return nil, err
	}
	return &SQLStore{db: db}, nil
}

func (s *SQLStore) Insert(ctx context.Context, r Record) error {
	_, err := s.db.ExecContext(
		ctx,
		`insert into challans (
			challan_no, system_id, company_id, company_name, booking_no, line_no, color, date,
			total_quantity, report1_url, report2_url, created_at
		) values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ChallanNo, r.SystemID, r.CompanyID, r.CompanyName, r.BookingNo, r.LineNo, r.Color, r.Date,
		r.TotalQuantity, r.Report1URL, r.Report2URL, r.CreatedAt.UnixMilli(),
	)
	return err
}

// DeleteByChallanNo removes the oldest record with the given challan number.
func (s *SQLStore) DeleteByChallanNo(ctx context.Context, challanNo string) error {
	_, err := s.db.ExecContext(
		ctx,
		`delete from challans where id = (
			select id from challans where challan_no = ? order by id limit 1
		)`,
		challanNo,
	)
	return err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func sqlWhere(filter Filter) (string, []any) {
	filter = filter.normalized()
	var clauses []string
	var args []any
	add := func(column, value string) {
		if value == "" {
			return
		}
		clauses = append(clauses, column+` like ? escape '\'`)
		args = append(args, "%"+likeEscaper.Replace(value)+"%")
	}
	add("challan_no", filter.ChallanNo)
	add("line_no", filter.LineNo)
	add("date", filter.Date)
	add("booking_no", filter.BookingNo)

	if len(clauses) == 0 {
		return "", nil
	}
	return " where " + strings.Join(clauses, " and "), args
}

func (s *SQLStore) Find(ctx context.Context, filter Filter, page, limit int) ([]Record, int64, error) {
	where, args := sqlWhere(filter)

	var total int64
	err := s.db.QueryRowContext(ctx, "select count(*) from challans"+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	skip, size := pageBounds(page, limit)
	rows, err := s.db.QueryContext(
		ctx,
		`select id, challan_no, system_id, company_id, company_name, booking_no, line_no, color,
			date, total_quantity, report1_url, report2_url, created_at
		from challans`+where+` order by created_at desc, id desc limit ? offset ?`,
		append(args, size, skip)...,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		var id int64
		var createdAt int64
		err := rows.Scan(
			&id, &r.ChallanNo, &r.SystemID, &r.CompanyID, &r.CompanyName, &r.BookingNo, &r.LineNo,
			&r.Color, &r.Date, &r.TotalQuantity, &r.Report1URL, &r.Report2URL, &createdAt,
		)
		if err != nil {
			return nil, 0, err
		}
		r.ID = strconv.FormatInt(id, 10)
		r.CreatedAt = time.UnixMilli(createdAt)
		out = append(out, r)
	}
	return out, total, rows.Err()
}

func (s *SQLStore) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	var err error
	if since.IsZero() {
		err = s.db.QueryRowContext(ctx, "select count(*) from challans").Scan(&n)
	} else {
		err = s.db.QueryRowContext(
			ctx,
			"select count(*) from challans where created_at >= ?",
			since.UnixMilli(),
		).Scan(&n)
	}
	return n, err
}

func (s *SQLStore) Close(context.Context) error {
	return s.db.Close()
}
