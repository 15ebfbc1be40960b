// Package store is the persistence port of the contacts service. The Store
// interface decouples the HTTP layer and the birthday calculator from the
// concrete backend; MySQL is the production implementation.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/contactsapp/contacts-api/internal/model"
)

// ErrNotFound is returned when no contact exists for the requested id.
var ErrNotFound = errors.New("contact not found")

// ErrDuplicateEmail is returned when a create or update would leave two contacts
// with the same email address.
var ErrDuplicateEmail = errors.New("email already in use")

// mysqlDuplicateEntry is ER_DUP_ENTRY, raised when the unique index on the email
// column rejects a row. The constraint is the authoritative duplicate check; a
// SELECT pre-check would race against concurrent inserts.
const mysqlDuplicateEntry = 1062

// Filter describes the optional search parameters of a list query. A non-empty Q
// takes precedence: it matches case-insensitively against first name, last name or
// email, and the individual fields are ignored. Without Q the supplied individual
// fields are combined with AND.
type Filter struct {
	Q         string
	FirstName string
	LastName  string
	Email     string
}

// Store is the set of persistence primitives the service is written against.
type Store interface {
	Create(in model.ContactInput) (model.Contact, error)
	Get(id int64) (model.Contact, error)
	UpdateFull(id int64, in model.ContactInput) (model.Contact, error)
	UpdatePartial(id int64, patch model.ContactPatch) (model.Contact, error)
	Delete(id int64) error
	List(f Filter, limit, offset int) ([]model.Contact, int, error)
	All() ([]model.Contact, error)
}

// MySQL implements Store on top of a MySQL database through sqlx.
type MySQL struct {
	db *sqlx.DB

	// Prepared statements offer a significant speed increase if executed many times.
	insert        *sqlx.NamedStmt
	selectWhereId *sqlx.Stmt
	deleteWhereId *sqlx.Stmt
}

// NewMySQL initializes the sqlx database wrapper with the specified sql database
// and prepares the statements for the hot single-row paths. The database argument
// can be a real database for production use or a mock database within unit tests.
func NewMySQL(sqlDB *sql.DB) (*MySQL, error) {
	s := &MySQL{db: sqlx.NewDb(sqlDB, "mysql")}
	var err error
	s.insert, err = s.db.PrepareNamed(`
		INSERT INTO contacts (first_name, last_name, email, phone, birthday, notes)
		VALUES (:first_name, :last_name, :email, :phone, :birthday, :notes)
	`)
	if err != nil {
		return nil, fmt.Errorf("preparing insert: %w", err)
	}
	s.selectWhereId, err = s.db.Preparex(`
		SELECT * FROM contacts WHERE id = ?
	`)
	if err != nil {
		return nil, fmt.Errorf("preparing select by id: %w", err)
	}
	s.deleteWhereId, err = s.db.Preparex(`
		DELETE FROM contacts WHERE id = ?
	`)
	if err != nil {
		return nil, fmt.Errorf("preparing delete by id: %w", err)
	}
	return s, nil
}

// Create inserts a new contact and returns it with the assigned id.
func (s *MySQL) Create(in model.ContactInput) (model.Contact, error) {
	result, err := s.insert.Exec(in)
	if err != nil {
		if isDuplicateEmail(err) {
			return model.Contact{}, ErrDuplicateEmail
		}
		return model.Contact{}, fmt.Errorf("inserting contact: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return model.Contact{}, fmt.Errorf("reading inserted id: %w", err)
	}
	return model.Contact{
		Id:        id,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Phone:     in.Phone,
		Birthday:  *in.Birthday,
		Notes:     in.Notes,
	}, nil
}

// Get returns the contact with the given id.
func (s *MySQL) Get(id int64) (model.Contact, error) {
	var contact model.Contact
	if err := s.selectWhereId.Get(&contact, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Contact{}, ErrNotFound
		}
		return model.Contact{}, fmt.Errorf("selecting contact %d: %w", id, err)
	}
	return contact, nil
}

// UpdateFull replaces every writable field of the contact with the given id and
// returns the stored record.
func (s *MySQL) UpdateFull(id int64, in model.ContactInput) (model.Contact, error) {
	if _, err := s.Get(id); err != nil {
		return model.Contact{}, err
	}
	_, err := s.db.Exec(`
		UPDATE contacts
		SET first_name=?, last_name=?, email=?, phone=?, birthday=?, notes=?
		WHERE id=?
	`, in.FirstName, in.LastName, in.Email, in.Phone, in.Birthday, in.Notes, id)
	if err != nil {
		if isDuplicateEmail(err) {
			return model.Contact{}, ErrDuplicateEmail
		}
		return model.Contact{}, fmt.Errorf("updating contact %d: %w", id, err)
	}
	return s.Get(id)
}

// UpdatePartial merges only the supplied fields onto the contact with the given id
// and returns the stored record. An empty patch leaves the record untouched.
func (s *MySQL) UpdatePartial(id int64, patch model.ContactPatch) (model.Contact, error) {
	existing, err := s.Get(id)
	if err != nil {
		return model.Contact{}, err
	}
	if patch.Empty() {
		return existing, nil
	}

	var sets []string
	var args []any
	if patch.FirstName != nil {
		sets = append(sets, "first_name=?")
		args = append(args, *patch.FirstName)
	}
	if patch.LastName != nil {
		sets = append(sets, "last_name=?")
		args = append(args, *patch.LastName)
	}
	if patch.Email != nil {
		sets = append(sets, "email=?")
		args = append(args, *patch.Email)
	}
	if patch.Phone != nil {
		sets = append(sets, "phone=?")
		args = append(args, *patch.Phone)
	}
	if patch.Birthday != nil {
		sets = append(sets, "birthday=?")
		args = append(args, *patch.Birthday)
	}
	if patch.Notes != nil {
		sets = append(sets, "notes=?")
		args = append(args, *patch.Notes)
	}
	args = append(args, id)

	query := "UPDATE contacts SET " + strings.Join(sets, ", ") + " WHERE id=?"
	if _, err := s.db.Exec(query, args...); err != nil {
		if isDuplicateEmail(err) {
			return model.Contact{}, ErrDuplicateEmail
		}
		return model.Contact{}, fmt.Errorf("patching contact %d: %w", id, err)
	}
	return s.Get(id)
}

// Delete removes the contact with the given id permanently.
func (s *MySQL) Delete(id int64) error {
	result, err := s.deleteWhereId.Exec(id)
	if err != nil {
		return fmt.Errorf("deleting contact %d: %w", id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting contact %d: %w", id, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns the page of contacts matching the filter, in id order, together
// with the total number of matches before pagination. An offset beyond the last
// match yields an empty page.
func (s *MySQL) List(f Filter, limit, offset int) ([]model.Contact, int, error) {
	where, args := buildWhere(f)

	var total int
	if err := s.db.Get(&total, "SELECT COUNT(*) FROM contacts"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("counting contacts: %w", err)
	}

	contacts := []model.Contact{}
	query := "SELECT * FROM contacts" + where + " ORDER BY id LIMIT ? OFFSET ?"
	pageArgs := append(append([]any{}, args...), limit, offset)
	if err := s.db.Select(&contacts, query, pageArgs...); err != nil {
		return nil, 0, fmt.Errorf("listing contacts: %w", err)
	}
	return contacts, total, nil
}

// All returns every stored contact in id order.
func (s *MySQL) All() ([]model.Contact, error) {
	contacts := []model.Contact{}
	if err := s.db.Select(&contacts, "SELECT * FROM contacts ORDER BY id"); err != nil {
		return nil, fmt.Errorf("loading contacts: %w", err)
	}
	return contacts, nil
}

// buildWhere translates a Filter into a WHERE clause and its arguments. Matching is
// a case-insensitive substring comparison on both sides.
func buildWhere(f Filter) (string, []any) {
	if f.Q != "" {
		pattern := likePattern(f.Q)
		return " WHERE (LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(email) LIKE ?)",
			[]any{pattern, pattern, pattern}
	}
	var conditions []string
	var args []any
	if f.FirstName != "" {
		conditions = append(conditions, "LOWER(first_name) LIKE ?")
		args = append(args, likePattern(f.FirstName))
	}
	if f.LastName != "" {
		conditions = append(conditions, "LOWER(last_name) LIKE ?")
		args = append(args, likePattern(f.LastName))
	}
	if f.Email != "" {
		conditions = append(conditions, "LOWER(email) LIKE ?")
		args = append(args, likePattern(f.Email))
	}
	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func likePattern(s string) string {
	return "%" + strings.ToLower(s) + "%"
}

// isDuplicateEmail reports whether the error is the backend's unique-constraint
// violation on the email column.
func isDuplicateEmail(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry
}
