package token

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// credentialByteLen 是凭据token的原始字节长度。
// 32字节随机数的hex编码产生64字符的不透明字符串。
const credentialByteLen = 32

// GenerateCredentialToken 生成一个密码学安全的高熵凭据token。
// 它被用作匿名访客的长期Cookie凭据，必须不可猜测。
func GenerateCredentialToken() (string, error) {
	b := make([]byte, credentialByteLen)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("无法生成安全的凭据token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
