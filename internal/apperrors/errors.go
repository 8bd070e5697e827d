// Package apperrors 定義協調器層的錯誤分類。
//
// 每個錯誤帶有一個 Kind，由 HTTP 層統一對應到狀態碼；
// 服務層只需要用對應的建構函式回傳錯誤即可。
package apperrors

import "errors"

// Kind 區分錯誤的類別
type Kind int

const (
	// KindInvalidInput 表示請求欄位缺失或格式錯誤
	KindInvalidInput Kind = iota + 1
	// KindNotFound 表示房間或參賽者不存在
	KindNotFound
	// KindInvalidState 表示該操作在目前房間狀態下不合法
	KindInvalidState
	// KindTurnViolation 表示發言者不是當前輪到的參賽者
	KindTurnViolation
)

// Error 是帶有分類的應用層錯誤
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func InvalidInput(msg string) error {
	return &Error{Kind: KindInvalidInput, Message: msg}
}

func NotFound(msg string) error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func InvalidState(msg string) error {
	return &Error{Kind: KindInvalidState, Message: msg}
}

func TurnViolation(msg string) error {
	return &Error{Kind: KindTurnViolation, Message: msg}
}

// KindOf 取出錯誤的分類，非應用層錯誤回傳 0
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// Is 判斷錯誤是否屬於指定分類
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
