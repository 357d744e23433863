package realtime

import (
	"context"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/net/websocket"

	"github.com/nao1215/taskhub/pkg/middleware"
)

// IdentityResolver はリクエストから安定したユーザーIDを解決する関数。
// 接続受付時に注入され、空文字列を返した場合その接続は登録されず、
// プッシュ配信も受け取らない。
type IdentityResolver func(r *http.Request) (string, error)

// JWTIdentityResolver はJWTトークンからユーザーIDを解決するIdentityResolverを返す。
// トークンは "token" クエリパラメータ、またはAuthorizationヘッダーから取得する。
// ブラウザのWebSocket APIはカスタムヘッダーを設定できないため、
// クエリパラメータを第一の経路とする。
func JWTIdentityResolver(secret string) IdentityResolver {
	return func(r *http.Request) (string, error) {
		tokenString := r.URL.Query().Get("token")
		if tokenString == "" {
			authHeader := r.Header.Get("Authorization")
			tokenString, _ = strings.CutPrefix(authHeader, "Bearer ")
		}
		if tokenString == "" {
			return "", nil
		}

		claims, err := middleware.ParseToken(secret, tokenString)
		if err != nil {
			return "", err
		}
		return claims.UserID, nil
	}
}

// ctxKeyUserID はハンドシェイク時に解決したユーザーIDを
// WebSocketハンドラへ引き渡すためのコンテキストキー。
type ctxKeyUserID struct{}

// Handler はWebSocket接続を受け付けるHTTPハンドラを返す。
// ハンドシェイク時にresolverでユーザーIDを解決し、解決できた接続のみ
// hubに登録する。切断時（異常切断を含む）には必ず登録を解除する。
func Handler(hub *Hub, resolver IdentityResolver) http.Handler {
	wsHandler := websocket.Handler(func(conn *websocket.Conn) {
		serveConn(hub, conn)
	})

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		userID, err := resolver(r)
		if err != nil {
			log.Printf("[Realtime] 接続の識別子解決に失敗: remote=%s, error=%v", r.RemoteAddr, err)
			http.Error(w, "authentication required", http.StatusUnauthorized)
			return
		}
		if userID == "" {
			// 未認証の接続は登録しない
			http.Error(w, "authentication required", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyUserID{}, userID)
		wsHandler.ServeHTTP(w, r.WithContext(ctx))
	})
}

// serveConn は1本のWebSocket接続のライフサイクルを管理する。
// 登録後は切断検知のために受信ループで待機する。クライアントからの
// 受信データは使用しない（サーバーからのプッシュ専用チャネル）。
func serveConn(hub *Hub, conn *websocket.Conn) {
	defer func() {
		_ = conn.Close()
	}()

	userID, _ := conn.Request().Context().Value(ctxKeyUserID{}).(string)
	if userID == "" {
		return
	}

	connID := uuid.New().String()
	hub.Register(userID, connID, newWSSink(conn))
	defer hub.Unregister(userID, connID)

	log.Printf("[Realtime] 接続を登録: user_id=%s, conn_id=%s", userID, connID)

	// 切断（EOF）まで読み捨てる
	buf := make([]byte, 256)
	for {
		if _, err := conn.Read(buf); err != nil {
			if err != io.EOF {
				log.Printf("[Realtime] 接続の読み取りを終了: user_id=%s, conn_id=%s, error=%v", userID, connID, err)
			}
			return
		}
	}
}
