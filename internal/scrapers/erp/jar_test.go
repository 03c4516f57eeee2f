package erp

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestJar(t *testing.T) {
	jar := NewJar()
	require.Equal(t, "", jar.Header())

	header := http.Header{}
	header.Add("Set-Cookie", "PHPSESSID=abc123; path=/; HttpOnly")
	header.Add("Set-Cookie", "lang=en")
	header.Add("Set-Cookie", "token=a=b=c; Secure")
	header.Add("Set-Cookie", "broken")
	header.Add("Set-Cookie", "=novalue")
	jar.Update(header)

	require.Equal(t, 3, jar.Len())
	require.Equal(t, "PHPSESSID=abc123; lang=en; token=a=b=c", jar.Header())

	token, ok := jar.Get("token")
	require.True(t, ok)
	require.Equal(t, "a=b=c", token)

	header = http.Header{}
	header.Add("Set-Cookie", " PHPSESSID = def456 ; path=/")
	jar.Update(header)
	require.Equal(t, "PHPSESSID=def456; lang=en; token=a=b=c", jar.Header())
}
