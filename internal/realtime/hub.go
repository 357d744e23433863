package realtime

import (
	"log"
	"sync"

	"github.com/nao1215/taskhub/pkg/event"
)

// Sink はフレームを1本の接続へ書き込む送信先を表す。
// 本番ではWebSocket接続、テストでは記録用のフェイクが実装する。
type Sink interface {
	// Send はフレームを接続へ書き込む。書き込みには上限時間があり、
	// 超過した場合はその接続への配信失敗として扱われる。
	Send(frame event.Frame) error
}

// Hub はユーザーIDと接続中のSinkの対応を管理する接続レジストリ。
// 1ユーザーが複数の端末・タブから接続している場合、接続ごとに登録される。
// プロセスローカルであり永続化はしない。明示的に生成して注入する。
type Hub struct {
	// mu はconnsへの並行アクセスを保護する。
	mu sync.RWMutex
	// conns はユーザーID → 接続ID → Sinkの対応。
	conns map[string]map[string]Sink
}

// NewHub は新しい接続レジストリを生成する。
func NewHub() *Hub {
	return &Hub{
		conns: make(map[string]map[string]Sink),
	}
}

// Register は接続をユーザーのエントリに追加する。
// 同じ（ユーザーID, 接続ID）の組を二重に登録しても副作用はない。
func (h *Hub) Register(userID, connID string, sink Sink) {
	if userID == "" || connID == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.conns[userID]; !ok {
		h.conns[userID] = make(map[string]Sink)
	}
	h.conns[userID][connID] = sink
}

// Unregister は接続をユーザーのエントリから取り除く。
// 切断イベントは競合したり二重発火したりするため、存在しない接続の
// 削除は何もしない。最後の接続が消えた場合はエントリ自体を削除する。
func (h *Hub) Unregister(userID, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.conns[userID]
	if !ok {
		return
	}
	delete(set, connID)
	if len(set) == 0 {
		delete(h.conns, userID)
	}
}

// ConnectionsFor はユーザーの現在の接続のスナップショットを返す。
// 未知のユーザーの場合は空のスライスを返す。返却後に接続が切れる
// 可能性があるため、呼び出し側は送信失敗を前提に扱うこと。
func (h *Hub) ConnectionsFor(userID string) []Sink {
	h.mu.RLock()
	defer h.mu.RUnlock()

	set := h.conns[userID]
	sinks := make([]Sink, 0, len(set))
	for _, sink := range set {
		sinks = append(sinks, sink)
	}
	return sinks
}

// Push はユーザーの全接続へフレームを配信し、試行した接続数を返す。
// 各接続への送信は並行して行われ、1本の遅い接続が他の接続への
// 配信を遅らせることはない。送信失敗はログに記録して握りつぶす。
func (h *Hub) Push(userID string, frame event.Frame) int {
	sinks := h.ConnectionsFor(userID)
	if len(sinks) == 0 {
		return 0
	}

	var wg sync.WaitGroup
	for _, sink := range sinks {
		wg.Add(1)
		go func(s Sink) {
			defer wg.Done()
			if err := s.Send(frame); err != nil {
				log.Printf("[Realtime] フレーム配信に失敗: user_id=%s, frame=%s, error=%v", userID, frame.Name, err)
			}
		}(sink)
	}
	wg.Wait()

	return len(sinks)
}
