package utils

import (
	"math/rand"
	"strings"
)

// 房間代碼使用的字母表，排除容易混淆的 0/O、1/I
const roomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// RoomCodeLength 房間代碼長度
const RoomCodeLength = 6

// GenerateRoomCode 產生一個隨機房間代碼
//
// 唯一性由呼叫端負責檢查（對存放層重試即可）。
func GenerateRoomCode() string {
	var b strings.Builder
	b.Grow(RoomCodeLength)
	for i := 0; i < RoomCodeLength; i++ {
		b.WriteByte(roomCodeAlphabet[rand.Intn(len(roomCodeAlphabet))])
	}
	return b.String()
}

// NormalizeRoomCode 將輸入的房間代碼正規化為大寫
func NormalizeRoomCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
