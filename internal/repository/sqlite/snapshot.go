package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/msomdec/clinic-booking/internal/domain"
)

// Load reads the full snapshot. It returns domain.ErrNoSnapshot until the
// first Save.
func (db *DB) Load(ctx context.Context) (*domain.Snapshot, error) {
	var savedAt time.Time
	err := db.SqlDB.QueryRowContext(ctx, "SELECT saved_at FROM snapshot_meta WHERE id = 1").Scan(&savedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNoSnapshot
		}
		return nil, fmt.Errorf("query snapshot meta: %w", err)
	}

	snap := &domain.Snapshot{NextIDs: make(map[string]int64)}

	if snap.Users, err = db.loadUsers(ctx); err != nil {
		return nil, err
	}
	if snap.Doctors, err = db.loadDoctors(ctx); err != nil {
		return nil, err
	}
	if snap.Appointments, err = db.loadAppointments(ctx); err != nil {
		return nil, err
	}

	rows, err := db.SqlDB.QueryContext(ctx, "SELECT collection, next_id FROM next_ids")
	if err != nil {
		return nil, fmt.Errorf("query next ids: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var key string
		var next int64
		if err := rows.Scan(&key, &next); err != nil {
			return nil, fmt.Errorf("scan next id: %w", err)
		}
		snap.NextIDs[key] = next
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate next ids: %w", err)
	}

	return snap, nil
}

// Save replaces every stored row with the snapshot in one transaction.
func (db *DB) Save(ctx context.Context, snap *domain.Snapshot) error {
	tx, err := db.SqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"appointments", "users", "doctors", "next_ids"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for _, u := range snap.Users {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO users (id, name, email, phone, role, password) VALUES (?, ?, ?, ?, ?, ?)`,
			u.ID, u.Name, u.Email, u.Phone, string(u.Role), u.Password,
		)
		if err != nil {
			return fmt.Errorf("insert user %d: %w", u.ID, err)
		}
	}

	for _, d := range snap.Doctors {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO doctors (id, name, specialty, experience, rating) VALUES (?, ?, ?, ?, ?)`,
			d.ID, d.Name, d.Specialty, d.Experience, d.Rating,
		)
		if err != nil {
			return fmt.Errorf("insert doctor %d: %w", d.ID, err)
		}
	}

	for _, a := range snap.Appointments {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO appointments (id, user_id, doctor_id, doctor_name, date, time, reason, status, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			a.ID, a.UserID, a.DoctorID, a.DoctorName, a.Date, a.Time, a.Reason, string(a.Status), a.CreatedAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("insert appointment %d: %w", a.ID, err)
		}
	}

	for key, next := range snap.NextIDs {
		if _, err := tx.ExecContext(ctx, "INSERT INTO next_ids (collection, next_id) VALUES (?, ?)", key, next); err != nil {
			return fmt.Errorf("insert next id %s: %w", key, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO snapshot_meta (id, saved_at) VALUES (1, ?)
		 ON CONFLICT(id) DO UPDATE SET saved_at = excluded.saved_at`,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("record snapshot meta: %w", err)
	}

	return tx.Commit()
}

func (db *DB) loadUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := db.SqlDB.QueryContext(ctx,
		`SELECT id, name, email, phone, role, password FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var u domain.User
		var role string
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &role, &u.Password); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		u.Role = domain.Role(role)
		users = append(users, u)
	}
	return users, rows.Err()
}

func (db *DB) loadDoctors(ctx context.Context) ([]domain.Doctor, error) {
	rows, err := db.SqlDB.QueryContext(ctx,
		`SELECT id, name, specialty, experience, rating FROM doctors ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query doctors: %w", err)
	}
	defer rows.Close()

	var doctors []domain.Doctor
	for rows.Next() {
		var d domain.Doctor
		if err := rows.Scan(&d.ID, &d.Name, &d.Specialty, &d.Experience, &d.Rating); err != nil {
			return nil, fmt.Errorf("scan doctor: %w", err)
		}
		doctors = append(doctors, d)
	}
	return doctors, rows.Err()
}

func (db *DB) loadAppointments(ctx context.Context) ([]domain.Appointment, error) {
	rows, err := db.SqlDB.QueryContext(ctx,
		`SELECT id, user_id, doctor_id, doctor_name, date, time, reason, status, created_at
		 FROM appointments ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query appointments: %w", err)
	}
	defer rows.Close()

	var appts []domain.Appointment
	for rows.Next() {
		var a domain.Appointment
		var status string
		if err := rows.Scan(&a.ID, &a.UserID, &a.DoctorID, &a.DoctorName, &a.Date, &a.Time, &a.Reason, &status, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		a.Status = domain.Status(status)
		appts = append(appts, a)
	}
	return appts, rows.Err()
}
