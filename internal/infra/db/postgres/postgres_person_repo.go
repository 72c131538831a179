package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-notify-bot/internal/domain"
	"telegram-notify-bot/internal/domain/model"
	"telegram-notify-bot/internal/domain/ports/repository"
)

var _ repository.PersonRepository = (*PostgresPersonRepo)(nil)

type PostgresPersonRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresPersonRepo(pool *pgxpool.Pool) *PostgresPersonRepo {
	return &PostgresPersonRepo{pool: pool}
}

const personColumns = `chat_id, display_name, birthday, category, title, registered_at`

func (r *PostgresPersonRepo) FindByChatID(ctx context.Context, tx repository.Tx, chatID model.ChatID) (*model.Person, error) {
	exec, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	const q = `SELECT ` + personColumns + ` FROM persons WHERE chat_id=$1;`
	p, err := scanPerson(exec.QueryRow(ctx, q, string(chatID)))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find person %s: %w", chatID, err)
	}
	return p, nil
}

func (r *PostgresPersonRepo) Create(ctx context.Context, tx repository.Tx, p *model.Person) error {
	exec, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	const q = `
INSERT INTO persons (chat_id, display_name, birthday, category, title, registered_at)
VALUES ($1,$2,$3,$4,$5,$6);`
	_, err = exec.Exec(ctx, q, string(p.ChatID), p.DisplayName, birthdayArg(p.Birthday), p.Category.String(), p.Title, p.RegisteredAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("create person %s: %w", p.ChatID, err)
	}
	return nil
}

func (r *PostgresPersonRepo) FindWithBirthdaySet(ctx context.Context, tx repository.Tx) ([]*model.Person, error) {
	const q = `SELECT ` + personColumns + ` FROM persons WHERE birthday IS NOT NULL ORDER BY registered_at, chat_id;`
	return r.list(ctx, tx, q)
}

func (r *PostgresPersonRepo) List(ctx context.Context, tx repository.Tx) ([]*model.Person, error) {
	const q = `SELECT ` + personColumns + ` FROM persons ORDER BY registered_at, chat_id;`
	return r.list(ctx, tx, q)
}

func (r *PostgresPersonRepo) UpdateProfile(ctx context.Context, tx repository.Tx, chatID model.ChatID, profile model.Profile) error {
	exec, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	const q = `UPDATE persons SET birthday=$2, category=$3, title=$4 WHERE chat_id=$1;`
	tag, err := exec.Exec(ctx, q, string(chatID), birthdayArg(profile.Birthday), profile.Category.String(), profile.Title)
	if err != nil {
		return fmt.Errorf("update profile %s: %w", chatID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PostgresPersonRepo) list(ctx context.Context, tx repository.Tx, q string) ([]*model.Person, error) {
	exec, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	rows, err := exec.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list persons: %w", err)
	}
	defer rows.Close()

	var out []*model.Person
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, fmt.Errorf("scan person: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanPerson(row pgx.Row) (*model.Person, error) {
	var (
		p        model.Person
		id       string
		birthday *string
		category string
	)
	if err := row.Scan(&id, &p.DisplayName, &birthday, &category, &p.Title, &p.RegisteredAt); err != nil {
		return nil, err
	}
	p.ChatID = model.ChatID(id)
	if birthday != nil {
		b, err := model.ParseBirthday(*birthday)
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

func birthdayArg(b *model.Birthday) *string {
	if b == nil {
		return nil
	}
	s := b.String()
	return &s
}
