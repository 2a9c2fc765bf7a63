package respond

import (
	"regexp"
)

var (
	// OpenAI API キーパターン
	openaiKeyPattern = regexp.MustCompile(`sk-[a-zA-Z0-9-_]{10,}`)

	// Authorization ヘッダがエラー本文に混入した場合のマスク
	bearerTokenPattern = regexp.MustCompile(`(?i)bearer\s+[a-zA-Z0-9._~+/-]+=*`)

	// データベースパスワードパターン（DSN内）
	dbPasswordPattern = regexp.MustCompile(`://([^:]+):([^@]+)@`)
)

// SanitizeError は機密情報をマスクしたエラーメッセージを返す
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}

	msg := err.Error()

	msg = openaiKeyPattern.ReplaceAllString(msg, "sk-****")
	msg = bearerTokenPattern.ReplaceAllString(msg, "Bearer ****")

	// DBパスワードのマスク
	msg = dbPasswordPattern.ReplaceAllString(msg, "://$1:****@")

	return msg
}
