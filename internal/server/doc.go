// Package server はアプリケーション全体の組み立てを担当する。
// SQLiteデータベースの初期化、各モジュールの依存関係の配線、
// HTTPルーティングとWebSocketエンドポイントの登録を行う。
package server
