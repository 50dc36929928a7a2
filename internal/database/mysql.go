package database

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"

	"aprspass/entity"
	"aprspass/internal/config"
)

const schemaRequests = `CREATE TABLE IF NOT EXISTS requests (
	id VARCHAR(36) NOT NULL,
	full_name VARCHAR(100) NOT NULL,
	callsign VARCHAR(7) NOT NULL,
	locator VARCHAR(8) NOT NULL,
	email VARCHAR(255) NOT NULL,
	comment TEXT,
	country VARCHAR(64) NOT NULL DEFAULT '',
	submitted_at DATETIME NOT NULL,
	last_action_at DATETIME NOT NULL,
	action_by VARCHAR(64) NOT NULL DEFAULT '',
	status VARCHAR(20) NOT NULL DEFAULT 'pending',
	passcode VARCHAR(5) DEFAULT NULL,
	PRIMARY KEY (id),
	UNIQUE KEY uq_requests_callsign (callsign),
	KEY ix_requests_status (status, submitted_at)
)`

const schemaAdmins = `CREATE TABLE IF NOT EXISTS admins (
	username VARCHAR(64) NOT NULL,
	name VARCHAR(100) NOT NULL DEFAULT '',
	email VARCHAR(255) NOT NULL DEFAULT '',
	token VARCHAR(64) NOT NULL,
	telegram_id BIGINT NOT NULL DEFAULT 0,
	telegram_enabled TINYINT(1) NOT NULL DEFAULT 0,
	PRIMARY KEY (username),
	UNIQUE KEY uq_admins_token (token)
)`

type MySql struct {
	db         *sql.DB
	statements map[string]*sql.Stmt
	mu         sync.Mutex
}

func NewSQLClient(conf *config.Config) (*MySql, error) {
	if !conf.MySql.Enabled {
		return nil, fmt.Errorf("mysql store is disabled in configuration")
	}
	connectionURI := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		conf.MySql.User, conf.MySql.Password, conf.MySql.Host, conf.MySql.Port, conf.MySql.Database)
	db, err := sql.Open("mysql", connectionURI)
	if err != nil {
		return nil, fmt.Errorf("sql connect: %w", err)
	}

	// try to ping three times with a 30-second interval; wait for a database to start
	for i := 0; i < 3; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		if i == 2 {
			return nil, fmt.Errorf("ping database: %w", err)
		}
		time.Sleep(30 * time.Second)
	}

	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(time.Hour)

	sdb := &MySql{
		db:         db,
		statements: make(map[string]*sql.Stmt),
	}

	if _, err = db.Exec(schemaRequests); err != nil {
		return nil, fmt.Errorf("ensure requests table: %w", err)
	}
	if _, err = db.Exec(schemaAdmins); err != nil {
		return nil, fmt.Errorf("ensure admins table: %w", err)
	}

	return sdb, nil
}

func (s *MySql) Close() {
	s.closeStmt()
	_ = s.db.Close()
}

func (s *MySql) InsertRequest(req *entity.PasscodeRequest) error {
	stmt, err := s.stmtInsertRequest()
	if err != nil {
		return err
	}
	_, err = stmt.Exec(
		req.Id,
		req.FullName,
		req.Callsign,
		req.Locator,
		req.Email,
		req.Comment,
		req.Country,
		req.SubmittedAt,
		req.LastActionAt,
		req.ActionBy,
		string(req.Status),
		nullable(req.Passcode),
	)
	if duplicateEntry(err) {
		return entity.ErrDuplicateCallsign
	}
	return err
}

func (s *MySql) GetRequest(id string) (*entity.PasscodeRequest, error) {
	stmt, err := s.stmtSelectRequestById()
	if err != nil {
		return nil, err
	}
	return scanRequest(stmt.QueryRow(id))
}

func (s *MySql) GetRequestByCallsign(callsign string) (*entity.PasscodeRequest, error) {
	stmt, err := s.stmtSelectRequestByCallsign()
	if err != nil {
		return nil, err
	}
	return scanRequest(stmt.QueryRow(callsign))
}

func (s *MySql) GetRequests(status entity.Status) ([]*entity.PasscodeRequest, error) {
	var rows *sql.Rows
	if status == "" {
		stmt, err := s.stmtSelectRequests()
		if err != nil {
			return nil, err
		}
		rows, err = stmt.Query()
		if err != nil {
			return nil, err
		}
	} else {
		stmt, err := s.stmtSelectRequestsByStatus()
		if err != nil {
			return nil, err
		}
		rows, err = stmt.Query(string(status))
		if err != nil {
			return nil, err
		}
	}
	defer rows.Close()

	var requests []*entity.PasscodeRequest
	for rows.Next() {
		req, err := scanRequestRow(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

func (s *MySql) SaveRequest(req *entity.PasscodeRequest) error {
	stmt, err := s.stmtUpdateRequest()
	if err != nil {
		return err
	}
	_, err = stmt.Exec(
		req.LastActionAt,
		req.ActionBy,
		string(req.Status),
		nullable(req.Passcode),
		req.Id,
	)
	return err
}

func (s *MySql) GetAdmin(token string) (*entity.Admin, error) {
	stmt, err := s.stmtSelectAdminByToken()
	if err != nil {
		return nil, err
	}
	var admin entity.Admin
	var enabled int
	err = stmt.QueryRow(token).Scan(
		&admin.Username,
		&admin.Name,
		&admin.Email,
		&admin.Token,
		&admin.TelegramId,
		&enabled,
	)
	if err != nil {
		return nil, err
	}
	admin.TelegramEnabled = enabled != 0
	return &admin, nil
}

func (s *MySql) GetTelegramAdmins() ([]*entity.Admin, error) {
	stmt, err := s.stmtSelectTelegramAdmins()
	if err != nil {
		return nil, err
	}
	rows, err := stmt.Query()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var admins []*entity.Admin
	for rows.Next() {
		var admin entity.Admin
		var enabled int
		if err = rows.Scan(
			&admin.Username,
			&admin.Name,
			&admin.Email,
			&admin.Token,
			&admin.TelegramId,
			&enabled,
		); err != nil {
			return nil, err
		}
		admin.TelegramEnabled = enabled != 0
		admins = append(admins, &admin)
	}
	return admins, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRequest(row *sql.Row) (*entity.PasscodeRequest, error) {
	req, err := scanRequestRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return req, err
}

func scanRequestRow(row rowScanner) (*entity.PasscodeRequest, error) {
	var req entity.PasscodeRequest
	var status string
	var passcode sql.NullString
	err := row.Scan(
		&req.Id,
		&req.FullName,
		&req.Callsign,
		&req.Locator,
		&req.Email,
		&req.Comment,
		&req.Country,
		&req.SubmittedAt,
		&req.LastActionAt,
		&req.ActionBy,
		&status,
		&passcode,
	)
	if err != nil {
		return nil, err
	}
	req.Status = entity.Status(status)
	if passcode.Valid {
		req.Passcode = passcode.String
	}
	return &req, nil
}

func nullable(value string) interface{} {
	if value == "" {
		return nil
	}
	return value
}

// duplicateEntry reports MySQL error 1062, a unique key violation.
func duplicateEntry(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}
