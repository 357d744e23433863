// Package realtime はユーザー単位のリアルタイム配信を提供する。
//
// 接続レジストリ（Hub）がユーザーIDと接続中のWebSocketの対応を管理し、
// 通知サービスからのプッシュ配信を各接続へベストエフォートで届ける。
// 配信の永続性は通知レコード側が保証するため、プッシュの失敗は
// ログに記録するだけで呼び出し元へは伝播しない。
package realtime
