package mailer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractCode(t *testing.T) {
	assert.Equal(t, "123456", ExtractCode("Your verification code is 123456."))
	assert.Equal(t, "987654", ExtractCode("認証コード: 987654\nこのコードは10分間有効です。"))
	assert.Empty(t, ExtractCode("no code in this mail"))
	// 4-digit PIN must not match
	assert.Empty(t, ExtractCode("pin 1234"))
	// First code wins when several appear
	assert.Equal(t, "111111", ExtractCode("111111 and later 222222"))
}

func TestIsVerificationSubject(t *testing.T) {
	assert.True(t, isVerificationSubject("【note】認証コードのお知らせ"))
	assert.True(t, isVerificationSubject("Your verification code"))
	assert.False(t, isVerificationSubject("週刊ニュースレター"))
}
