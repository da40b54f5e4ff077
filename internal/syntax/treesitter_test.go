//go:build cgo

package syntax

import (
	"context"
	"errors"
	"testing"
)

func TestChecker_Valid(t *testing.T) {
	c := NewChecker()
	ts := []byte("import { z } from \"zod\";\n\nexport const UserSchema = z.object({ id: z.string() });\n")
	if err := c.Check(context.Background(), "user.schema.ts", ts); err != nil {
		t.Errorf("valid TypeScript rejected: %v", err)
	}
	tsx := []byte("export function UserList() {\n  return <ul className=\"a\">{[1].map((n) => <li key={n}>{n}</li>)}</ul>;\n}\n")
	if err := c.Check(context.Background(), "UserList.tsx", tsx); err != nil {
		t.Errorf("valid TSX rejected: %v", err)
	}
}

func TestChecker_Invalid(t *testing.T) {
	c := NewChecker()
	err := c.Check(context.Background(), "broken.ts", []byte("export const a = {\n  b: 1,\n"))
	var se *Error
	if !errors.As(err, &se) {
		t.Fatalf("Check = %v, want *Error", err)
	}
	if se.Path != "broken.ts" || se.Line < 1 {
		t.Errorf("error = %+v", se)
	}
}

func TestChecker_SkipsUnknownExtensions(t *testing.T) {
	if err := NewChecker().Check(context.Background(), "schema.prisma", []byte("model {")); err != nil {
		t.Errorf("Check = %v, want nil", err)
	}
}
