package db

import (
	"context"
)

const createUser = `
INSERT INTO users (id, username, email, password_hash)
VALUES (?, ?, ?, ?)
`

// CreateUserParams はCreateUserのパラメータ。
type CreateUserParams struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
}

// CreateUser は新しいユーザーを登録する。
func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) error {
	_, err := q.db.ExecContext(ctx, createUser, arg.ID, arg.Username, arg.Email, arg.PasswordHash)
	return err
}

const getUserByID = `
SELECT id, username, email, password_hash, bio, profile_image_url, is_admin, created_at
FROM users
WHERE id = ?
`

// GetUserByID はIDでユーザーを取得する。
func (q *Queries) GetUserByID(ctx context.Context, id string) (User, error) {
	row := q.db.QueryRowContext(ctx, getUserByID, id)
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Bio, &u.ProfileImageURL, &u.IsAdmin, &u.CreatedAt)
	return u, err
}

const getUserByUsername = `
SELECT id, username, email, password_hash, bio, profile_image_url, is_admin, created_at
FROM users
WHERE username = ?
`

// GetUserByUsername はユーザー名でユーザーを取得する。
func (q *Queries) GetUserByUsername(ctx context.Context, username string) (User, error) {
	row := q.db.QueryRowContext(ctx, getUserByUsername, username)
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Bio, &u.ProfileImageURL, &u.IsAdmin, &u.CreatedAt)
	return u, err
}

const getUserByEmail = `
SELECT id, username, email, password_hash, bio, profile_image_url, is_admin, created_at
FROM users
WHERE email = ?
`

// GetUserByEmail はメールアドレスでユーザーを取得する。
func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := q.db.QueryRowContext(ctx, getUserByEmail, email)
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Bio, &u.ProfileImageURL, &u.IsAdmin, &u.CreatedAt)
	return u, err
}

const listUsers = `
SELECT id, username, email, password_hash, bio, profile_image_url, is_admin, created_at
FROM users
ORDER BY username
`

// ListUsers は全ユーザーをユーザー名順で取得する。
func (q *Queries) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := q.db.QueryContext(ctx, listUsers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Bio, &u.ProfileImageURL, &u.IsAdmin, &u.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateProfile = `
UPDATE users
SET bio = ?, profile_image_url = ?
WHERE id = ?
`

// UpdateProfileParams はUpdateProfileのパラメータ。
type UpdateProfileParams struct {
	Bio             string
	ProfileImageURL string
	ID              string
}

// UpdateProfile はユーザーのプロフィールを更新する。
func (q *Queries) UpdateProfile(ctx context.Context, arg UpdateProfileParams) error {
	_, err := q.db.ExecContext(ctx, updateProfile, arg.Bio, arg.ProfileImageURL, arg.ID)
	return err
}

const listCollaboratorUsers = `
WITH my_projects AS (
    SELECT id FROM projects WHERE owner_id = ?
    UNION
    SELECT project_id FROM project_members WHERE user_id = ? AND pending = 0
)
SELECT DISTINCT u.id, u.username, u.email, u.password_hash, u.bio, u.profile_image_url, u.is_admin, u.created_at
FROM users u
WHERE u.id != ?
  AND (
    u.id IN (SELECT owner_id FROM projects WHERE id IN (SELECT id FROM my_projects))
    OR u.id IN (SELECT user_id FROM project_members WHERE pending = 0 AND project_id IN (SELECT id FROM my_projects))
  )
ORDER BY u.username
`

// ListCollaboratorUsers は指定ユーザーとプロジェクトを共有するユーザーを重複なく取得する。
// 自分がオーナーまたはコラボレーターとして参加するプロジェクトの
// 参加者（オーナー含む）が対象で、自分自身は含まない。
func (q *Queries) ListCollaboratorUsers(ctx context.Context, userID string) ([]User, error) {
	rows, err := q.db.QueryContext(ctx, listCollaboratorUsers, userID, userID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Bio, &u.ProfileImageURL, &u.IsAdmin, &u.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
