package event

import (
	"encoding/json"
	"fmt"
)

// NewFrame は名前付きフレームを生成する。
// payloadにはイベント固有のデータ構造体を渡す。JSON形式にシリアライズされる。
func NewFrame(name FrameName, payload any) (Frame, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Frame{}, fmt.Errorf("フレームペイロードのシリアライズに失敗: %w", err)
	}
	return Frame{Name: name, Payload: data}, nil
}

// DecodePayload はフレームのペイロードを指定された型にデシリアライズする。
func DecodePayload[T any](f Frame) (*T, error) {
	var payload T
	if err := json.Unmarshal(f.Payload, &payload); err != nil {
		return nil, fmt.Errorf("フレームペイロードのデシリアライズに失敗: %w", err)
	}
	return &payload, nil
}
