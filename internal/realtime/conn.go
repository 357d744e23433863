package realtime

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/net/websocket"

	"github.com/nao1215/taskhub/pkg/event"
)

// writeTimeout は1接続への書き込みの上限時間。
// 超過した場合はその接続への配信失敗として扱う。再送はしない。
const writeTimeout = 5 * time.Second

// wsSink はWebSocket接続をSinkとして扱うためのラッパー。
// 複数のプッシュが並行して同じ接続へ書き込むため、書き込みを直列化する。
type wsSink struct {
	// mu は書き込みを直列化する。
	mu sync.Mutex
	// conn は下位のWebSocket接続。
	conn *websocket.Conn
}

// newWSSink はWebSocket接続をラップしたSinkを生成する。
func newWSSink(conn *websocket.Conn) *wsSink {
	return &wsSink{conn: conn}
}

// Send はフレームをJSON形式で接続へ書き込む。
// 書き込み期限を設定し、切断済み・応答しない接続で
// 呼び出し元が待ち続けないようにする。
func (s *wsSink) Send(frame event.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return fmt.Errorf("書き込み期限の設定に失敗: %w", err)
	}
	if err := websocket.JSON.Send(s.conn, frame); err != nil {
		return fmt.Errorf("WebSocketへの書き込みに失敗: %w", err)
	}
	return nil
}
