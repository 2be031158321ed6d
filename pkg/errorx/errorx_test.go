package errorx

import (
	"errors"
	"net/http"
	"testing"
)

type testCoder struct {
	code int
	http int
	msg  string
}

func (c testCoder) Code() int         { return c.code }
func (c testCoder) HTTPStatus() int   { return c.http }
func (c testCoder) String() string    { return c.msg }
func (c testCoder) Reference() string { return "" }

func TestWithCodeAndParseCoder(t *testing.T) {
	const code = 900001
	MustRegister(testCoder{code: code, http: http.StatusTeapot, msg: "teapot"})

	err := WithCode(code, "brewing %s", "coffee")
	if err.Error() != "brewing coffee" {
		t.Fatalf("unexpected message: %s", err.Error())
	}

	c := ParseCoder(err)
	if c.Code() != code || c.HTTPStatus() != http.StatusTeapot {
		t.Fatalf("unexpected coder: %+v", c)
	}
	if !IsCode(err, code) {
		t.Fatalf("expected IsCode to match")
	}
}

func TestWrapCPreservesCause(t *testing.T) {
	const code = 900002
	MustRegister(testCoder{code: code, http: http.StatusInternalServerError, msg: "wrapped"})

	cause := errors.New("root cause")
	err := WrapC(cause, code, "context")
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped error to unwrap to cause")
	}
	if !IsCode(err, code) {
		t.Fatalf("expected IsCode to match on wrapped error")
	}
}

func TestParseCoderUnknown(t *testing.T) {
	c := ParseCoder(errors.New("plain error"))
	if c.HTTPStatus() != http.StatusInternalServerError {
		t.Fatalf("expected unknown coder to map to 500, got %d", c.HTTPStatus())
	}
}

func TestMustRegisterDuplicatePanics(t *testing.T) {
	const code = 900003
	MustRegister(testCoder{code: code, http: http.StatusBadRequest, msg: "first"})

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on duplicate registration")
		}
	}()
	MustRegister(testCoder{code: code, http: http.StatusBadRequest, msg: "second"})
}
