package channel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"event":"created","booking":{"id":1}}`)
	sig := Sign("s3cret", body)

	assert.True(t, VerifySignature("s3cret", body, sig))
	assert.True(t, VerifySignature("s3cret", body, "sha256="+sig))
	assert.True(t, VerifySignature("s3cret", body, "SHA256="+sig))

	assert.False(t, VerifySignature("s3cret", body, ""))
	assert.False(t, VerifySignature("other", body, sig))
	assert.False(t, VerifySignature("s3cret", append(body, ' '), sig))
	assert.False(t, VerifySignature("", body, Sign("", body)))
}
