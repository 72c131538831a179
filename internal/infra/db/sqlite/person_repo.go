package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"telegram-notify-bot/internal/domain"
	"telegram-notify-bot/internal/domain/model"
	"telegram-notify-bot/internal/domain/ports/repository"
)

var _ repository.PersonRepository = (*PersonRepo)(nil)

type PersonRepo struct{ db *DB }

func NewPersonRepo(db *DB) *PersonRepo { return &PersonRepo{db: db} }

const personColumns = `chat_id, display_name, birthday, category, title, registered_at`

func (r *PersonRepo) FindByChatID(ctx context.Context, tx repository.Tx, chatID model.ChatID) (*model.Person, error) {
	exec, err := getExecutor(r.db, tx)
	if err != nil {
		return nil, err
	}
	row := exec.QueryRowContext(ctx, `SELECT `+personColumns+` FROM persons WHERE chat_id=?`, string(chatID))
	p, err := scanPerson(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find person %s: %w", chatID, err)
	}
	return p, nil
}

func (r *PersonRepo) Create(ctx context.Context, tx repository.Tx, p *model.Person) error {
	exec, err := getExecutor(r.db, tx)
	if err != nil {
		return err
	}
	res, err := exec.ExecContext(ctx, `
        INSERT INTO persons (`+personColumns+`) VALUES (?,?,?,?,?,?)
        ON CONFLICT(chat_id) DO NOTHING`,
		string(p.ChatID), p.DisplayName, birthdayArg(p.Birthday), p.Category.String(), p.Title, p.RegisteredAt.UnixNano())
	if err != nil {
		return fmt.Errorf("create person %s: %w", p.ChatID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrAlreadyExists
	}
	return nil
}

func (r *PersonRepo) FindWithBirthdaySet(ctx context.Context, tx repository.Tx) ([]*model.Person, error) {
	return r.list(ctx, tx, `SELECT `+personColumns+` FROM persons WHERE birthday IS NOT NULL ORDER BY registered_at, chat_id`)
}

func (r *PersonRepo) List(ctx context.Context, tx repository.Tx) ([]*model.Person, error) {
	return r.list(ctx, tx, `SELECT `+personColumns+` FROM persons ORDER BY registered_at, chat_id`)
}

func (r *PersonRepo) UpdateProfile(ctx context.Context, tx repository.Tx, chatID model.ChatID, profile model.Profile) error {
	exec, err := getExecutor(r.db, tx)
	if err != nil {
		return err
	}
	res, err := exec.ExecContext(ctx, `UPDATE persons SET birthday=?, category=?, title=? WHERE chat_id=?`,
		birthdayArg(profile.Birthday), profile.Category.String(), profile.Title, string(chatID))
	if err != nil {
		return fmt.Errorf("update profile %s: %w", chatID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PersonRepo) list(ctx context.Context, tx repository.Tx, q string) ([]*model.Person, error) {
	exec, err := getExecutor(r.db, tx)
	if err != nil {
		return nil, err
	}
	rows, err := exec.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list persons: %w", err)
	}
	defer rows.Close()

	var res []*model.Person
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, fmt.Errorf("scan person: %w", err)
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPerson(row scanner) (*model.Person, error) {
	var (
		p          model.Person
		id         string
		birthday   sql.NullString
		category   string
		registered int64
	)
	if err := row.Scan(&id, &p.DisplayName, &birthday, &category, &p.Title, &registered); err != nil {
		return nil, err
	}
	p.ChatID = model.ChatID(id)
	p.RegisteredAt = time.Unix(0, registered).UTC()
	if birthday.Valid {
		b, err := model.ParseBirthday(birthday.String)
		if err != nil {
			return nil, err
		}
		p.Birthday = &b
	}
	c, err := model.ParseCategory(category)
	if err != nil {
		return nil, err
	}
	p.Category = c
	return &p, nil
}

func birthdayArg(b *model.Birthday) sql.NullString {
	if b == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: b.String(), Valid: true}
}
