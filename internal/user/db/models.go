package db

import "time"

// User はユーザーテーブルの1行を表す。
type User struct {
	// ID はユーザーの一意識別子（UUID）。
	ID string
	// Username はユーザー名。
	Username string
	// Email はメールアドレス。
	Email string
	// PasswordHash はbcryptでハッシュ化されたパスワード。
	PasswordHash string
	// Bio は自己紹介。
	Bio string
	// ProfileImageURL はプロフィール画像のURL。
	ProfileImageURL string
	// IsAdmin は管理者フラグ（0=一般, 1=管理者）。
	IsAdmin int64
	// CreatedAt は作成日時。
	CreatedAt time.Time
}
