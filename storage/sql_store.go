package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"psnhub/models"
	"psnhub/utils"
)

const unitColumns = 21

// SQLStore mirrors converted catalogs into a units table. It works against
// PostgreSQL (lib/pq) and SQLite (modernc); both accept $n placeholders.
type SQLStore struct {
	db     *sql.DB
	driver string
}

// NewSQLStore opens a connection, waits for the database to answer, runs
// schema migrations, and returns a ready-to-use SQLStore.
func NewSQLStore(driver, dsn string, retry *utils.RetryConfig) (*SQLStore, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: open: %w", driver, err)
	}
	if driver == "sqlite" {
		// One connection keeps ":memory:" databases shared and serializes writers.
		db.SetMaxOpenConns(1)
	}

	if retry == nil {
		retry = &utils.RetryConfig{MaxAttempts: 1}
	}
	if err := retry.Do(driver+" ping", db.Ping); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLStore{db: db, driver: driver}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: migrate: %w", driver, err)
	}
	return s, nil
}

func (s *SQLStore) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS units (
			id            TEXT             PRIMARY KEY,
			slug          TEXT             NOT NULL,
			position      INTEGER          NOT NULL,
			developer     TEXT             NOT NULL,
			jk            TEXT             NOT NULL DEFAULT '',
			type          TEXT             NOT NULL,
			deal          TEXT             NOT NULL,
			price         BIGINT           NOT NULL DEFAULT 0,
			area          DOUBLE PRECISION NOT NULL,
			floor         INTEGER,
			finishing     TEXT             NOT NULL DEFAULT '',
			delivery      TEXT             NOT NULL DEFAULT '',
			district      TEXT             NOT NULL DEFAULT '',
			city          TEXT             NOT NULL DEFAULT '',
			metro         TEXT             NOT NULL DEFAULT '[]',
			address       TEXT             NOT NULL DEFAULT '',
			url_developer TEXT             NOT NULL DEFAULT '',
			has_3d        BOOLEAN          NOT NULL DEFAULT FALSE,
			url_3d        TEXT             NOT NULL DEFAULT '',
			commission    DOUBLE PRECISION NOT NULL DEFAULT 0,
			comment       TEXT             NOT NULL DEFAULT ''
		);

		CREATE INDEX IF NOT EXISTS idx_units_slug_deal ON units(slug, deal);
		CREATE INDEX IF NOT EXISTS idx_units_type      ON units(type);
		CREATE INDEX IF NOT EXISTS idx_units_city      ON units(city);
	`)
	return err
}

// Write replaces every unit of the catalog's developer and deal.
func (s *SQLStore) Write(c *models.Catalog) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("%s: begin: %w", s.driver, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM units WHERE slug = $1 AND deal = $2", c.Slug, string(c.Deal)); err != nil {
		return fmt.Errorf("%s: clear %s/%s: %w", s.driver, c.Slug, c.Deal, err)
	}

	const batchSize = 50
	for i := 0; i < len(c.Units); i += batchSize {
		end := i + batchSize
		if end > len(c.Units) {
			end = len(c.Units)
		}
		if err := s.insertBatch(tx, c.Slug, i, c.Units[i:end]); err != nil {
			return fmt.Errorf("%s: insert batch: %w", s.driver, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", s.driver, err)
	}
	return nil
}

func (s *SQLStore) insertBatch(tx *sql.Tx, slug string, offset int, batch []*models.Unit) error {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*unitColumns)

	for idx, u := range batch {
		base := idx * unitColumns
		placeholders := make([]string, unitColumns)
		for k := range placeholders {
			placeholders[k] = fmt.Sprintf("$%d", base+k+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")

		metro, err := json.Marshal(nonNil(u.Metro))
		if err != nil {
			return err
		}
		var floor sql.NullInt64
		if u.Floor != nil {
			floor = sql.NullInt64{Int64: int64(*u.Floor), Valid: true}
		}

		valueArgs = append(valueArgs,
			u.ID, slug, offset+idx, u.Developer, u.JK, string(u.Type), string(u.Deal),
			u.Price, u.Area, floor, u.Finishing, u.Delivery, u.District, u.City,
			string(metro), u.Address, u.URLDeveloper, u.Has3D, u.URL3D, u.Commission, u.Comment)
	}

	query := fmt.Sprintf(`
		INSERT INTO units (id, slug, position, developer, jk, type, deal, price, area, floor,
			finishing, delivery, district, city, metro, address, url_developer, has_3d, url_3d,
			commission, comment)
		VALUES %s
		ON CONFLICT (id) DO UPDATE SET
			slug = excluded.slug, position = excluded.position, developer = excluded.developer,
			jk = excluded.jk, type = excluded.type, deal = excluded.deal, price = excluded.price,
			area = excluded.area, floor = excluded.floor, finishing = excluded.finishing,
			delivery = excluded.delivery, district = excluded.district, city = excluded.city,
			metro = excluded.metro, address = excluded.address,
			url_developer = excluded.url_developer, has_3d = excluded.has_3d,
			url_3d = excluded.url_3d, commission = excluded.commission, comment = excluded.comment
	`, strings.Join(valueStrings, ","))

	_, err := tx.Exec(query, valueArgs...)
	return err
}

// FetchAll retrieves every mirrored unit in catalog order.
func (s *SQLStore) FetchAll() ([]*models.Unit, error) {
	rows, err := s.db.Query(`
		SELECT id, developer, jk, type, deal, price, area, floor, finishing, delivery,
			district, city, metro, address, url_developer, has_3d, url_3d, commission, comment
		FROM units
		ORDER BY slug, deal, position
	`)
	if err != nil {
		return nil, fmt.Errorf("%s: fetch all: %w", s.driver, err)
	}
	defer rows.Close()

	var units []*models.Unit
	for rows.Next() {
		u := &models.Unit{}
		var (
			unitType, deal, metro string
			floor                 sql.NullInt64
		)
		if err := rows.Scan(
			&u.ID, &u.Developer, &u.JK, &unitType, &deal, &u.Price, &u.Area, &floor,
			&u.Finishing, &u.Delivery, &u.District, &u.City, &metro, &u.Address,
			&u.URLDeveloper, &u.Has3D, &u.URL3D, &u.Commission, &u.Comment,
		); err != nil {
			return nil, fmt.Errorf("%s: scan row: %w", s.driver, err)
		}
		u.Type = models.Category(unitType)
		u.Deal = models.Deal(deal)
		if floor.Valid {
			f := int(floor.Int64)
			u.Floor = &f
		}
		if err := json.Unmarshal([]byte(metro), &u.Metro); err != nil {
			return nil, fmt.Errorf("%s: decode metro for %s: %w", s.driver, u.ID, err)
		}
		units = append(units, u)
	}
	return units, rows.Err()
}

// Close releases the connection pool.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// DefaultRetry is the connect retry policy used by the CLI.
func DefaultRetry(attempts int, logger *utils.Logger) *utils.RetryConfig {
	return &utils.RetryConfig{
		MaxAttempts: attempts,
		BaseDelay:   2 * time.Second,
		Logger:      logger,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
