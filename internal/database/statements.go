package database

import (
	"database/sql"
	"fmt"
)

func (s *MySql) prepareStmt(name, query string) (*sql.Stmt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if stmt, ok := s.statements[name]; ok {
		return stmt, nil
	}

	stmt, err := s.db.Prepare(query)
	if err != nil {
		return nil, fmt.Errorf("prepare statement [%s]: %w", name, err)
	}

	s.statements[name] = stmt
	return stmt, nil
}

func (s *MySql) closeStmt() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for name, stmt := range s.statements {
		_ = stmt.Close()
		delete(s.statements, name)
	}
}

const requestColumns = `id, full_name, callsign, locator, email, comment, country,
submitted_at, last_action_at, action_by, status, passcode`

func (s *MySql) stmtInsertRequest() (*sql.Stmt, error) {
	query := fmt.Sprintf(
		`INSERT INTO requests (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		requestColumns,
	)
	return s.prepareStmt("insertRequest", query)
}

func (s *MySql) stmtSelectRequestById() (*sql.Stmt, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM requests WHERE id = ?`,
		requestColumns,
	)
	return s.prepareStmt("selectRequestById", query)
}

func (s *MySql) stmtSelectRequestByCallsign() (*sql.Stmt, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM requests WHERE callsign = ?`,
		requestColumns,
	)
	return s.prepareStmt("selectRequestByCallsign", query)
}

func (s *MySql) stmtSelectRequests() (*sql.Stmt, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM requests ORDER BY submitted_at`,
		requestColumns,
	)
	return s.prepareStmt("selectRequests", query)
}

func (s *MySql) stmtSelectRequestsByStatus() (*sql.Stmt, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM requests WHERE status = ? ORDER BY submitted_at`,
		requestColumns,
	)
	return s.prepareStmt("selectRequestsByStatus", query)
}

func (s *MySql) stmtUpdateRequest() (*sql.Stmt, error) {
	query := `UPDATE requests SET
                   last_action_at = ?,
                   action_by = ?,
                   status = ?,
                   passcode = ?
                   WHERE id = ?`
	return s.prepareStmt("updateRequest", query)
}

const adminColumns = `username, name, email, token, telegram_id, telegram_enabled`

func (s *MySql) stmtSelectAdminByToken() (*sql.Stmt, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM admins WHERE token = ?`,
		adminColumns,
	)
	return s.prepareStmt("selectAdminByToken", query)
}

func (s *MySql) stmtSelectTelegramAdmins() (*sql.Stmt, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM admins WHERE telegram_id > 0 AND telegram_enabled = 1`,
		adminColumns,
	)
	return s.prepareStmt("selectTelegramAdmins", query)
}
