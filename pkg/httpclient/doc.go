// Package httpclient はtaskhub APIへのJSON通信用HTTPクライアントを提供する。
// cmd/seed等のAPIを呼び出すツールから使用する。
package httpclient
