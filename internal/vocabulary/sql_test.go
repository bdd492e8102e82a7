package vocabulary

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T, driver string) (*SQLStore, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewSQLStore(db, driver, nil), mock
}

func TestSQLStore_Children(t *testing.T) {
	store, mock := newMockStore(t, DriverPostgres)

	mock.ExpectQuery("SELECT name, detail FROM context_paths WHERE parent = $1 ORDER BY name").
		WithArgs("contact").
		WillReturnRows(sqlmock.NewRows([]string{"name", "detail"}).
			AddRow("age", "Age in years").
			AddRow("name", "Full name"))

	entries, err := store.Children(context.Background(), "Contact")
	require.NoError(t, err)
	assert.Equal(t, []Entry{
		{Name: "age", Path: "contact.age", Detail: "Age in years", Kind: KindField},
		{Name: "name", Path: "contact.name", Detail: "Full name", Kind: KindField},
	}, entries)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_TopLevelsUseSQLitePlaceholders(t *testing.T) {
	store, mock := newMockStore(t, DriverSQLite)

	mock.ExpectQuery("SELECT name, detail FROM context_paths WHERE parent = ? ORDER BY name").
		WithArgs("").
		WillReturnRows(sqlmock.NewRows([]string{"name", "detail"}).AddRow("contact", ""))

	entries, err := store.Children(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, KindTopLevel, entries[0].Kind)
	assert.Equal(t, "contact", entries[0].Path)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_QueryError(t *testing.T) {
	store, mock := newMockStore(t, DriverPgx)

	mock.ExpectQuery("SELECT name, detail FROM context_paths WHERE parent = $1 ORDER BY name").
		WithArgs("flow").
		WillReturnError(errors.New("connection reset"))

	_, err := store.Children(context.Background(), "flow")
	assert.ErrorContains(t, err, "connection reset")
}

func TestSQLStore_Functions(t *testing.T) {
	store, mock := newMockStore(t, DriverPostgres)

	mock.ExpectQuery("SELECT name, detail FROM context_functions ORDER BY name").
		WillReturnRows(sqlmock.NewRows([]string{"name", "detail"}).AddRow("len", "Length of text"))

	entries, err := store.Functions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Entry{{Name: "LEN", Path: "LEN", Detail: "Length of text", Kind: KindFunction}}, entries)
}

func TestSQLStore_AddPath(t *testing.T) {
	store, mock := newMockStore(t, DriverPostgres)

	mock.ExpectExec("INSERT INTO context_paths (parent, name, detail) VALUES ($1, $2, $3)").
		WithArgs("contact.fields", "district", "District").
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, store.AddPath(context.Background(), "Contact.Fields.District", "District"))
	assert.Error(t, store.AddPath(context.Background(), "  ", ""))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_AddFunction(t *testing.T) {
	store, mock := newMockStore(t, DriverSQLite)

	mock.ExpectExec("INSERT INTO context_functions (name, detail) VALUES (?, ?)").
		WithArgs("UPPER", "Upper-cases text").
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, store.AddFunction(context.Background(), " upper ", "Upper-cases text"))
	assert.Error(t, store.AddFunction(context.Background(), "", ""))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_Migrate(t *testing.T) {
	store, mock := newMockStore(t, DriverSQLite)

	mock.MatchExpectationsInOrder(true)
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS context_paths (
	parent TEXT NOT NULL,
	name   TEXT NOT NULL,
	detail TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (parent, name)
)`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS context_functions (
	name   TEXT PRIMARY KEY,
	detail TEXT NOT NULL DEFAULT ''
)`).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "oracle", "", nil)
	assert.ErrorIs(t, err, ErrUnknownDriver)
}

func TestOpen_SQLite(t *testing.T) {
	ctx := context.Background()

	store, err := Open(ctx, DriverSQLite, ":memory:", nil)
	require.NoError(t, err)
	defer store.Close()

	// a single connection keeps the in-memory database alive between queries
	store.db.SetMaxOpenConns(1)

	require.NoError(t, store.Migrate(ctx))
	require.NoError(t, store.AddPath(ctx, "contact", ""))
	require.NoError(t, store.AddPath(ctx, "contact.name", "Full name"))

	top, err := store.Children(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"contact"}, names(top))

	fields, err := store.Children(ctx, "contact")
	require.NoError(t, err)
	assert.Equal(t, []Entry{{Name: "name", Path: "contact.name", Detail: "Full name", Kind: KindField}}, fields)
}

func TestRebind(t *testing.T) {
	assert.Equal(t, "a = $1 AND b = $2", (&SQLStore{driver: DriverPgx}).rebind("a = ? AND b = ?"))
	assert.Equal(t, "a = ?", (&SQLStore{driver: DriverSQLite}).rebind("a = ?"))
}
