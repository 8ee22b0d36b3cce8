package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/blumenhaus/flora-shop/internal/core/domain"
	"github.com/blumenhaus/flora-shop/internal/core/ports"
)

func TestSafeAgainstXSS(t *testing.T) {
	dangerous := []string{
		"<script>alert(1)</script>",
		"<SCRIPT src=evil.js>",
		"javascript:alert(1)",
		"vbscript:msgbox(1)",
		`<img onload=steal()>`,
		`<img onerror=steal()>`,
		`<a onclick=steal()>`,
		"<iframe src=//evil>",
		"<object data=x>",
		"<embed src=x>",
	}
	for _, in := range dangerous {
		if SafeAgainstXSS(in) {
			t.Fatalf("expected %q to be flagged", in)
		}
	}

	for _, in := range []string{"", "Alice", "rosen & tulpen", "O'Brien"} {
		if !SafeAgainstXSS(in) {
			t.Fatalf("expected %q to be safe", in)
		}
	}
}

func TestSafeAgainstSQLInjection(t *testing.T) {
	dangerous := []string{
		"' OR 1=1",
		"admin--",
		"a;b",
		"UNION ALL SELECT *",
		"insert stuff into users",
		"DELETE rows FROM accounts",
		"update users set role",
		"drop the table",
		"exec master.sp_who",
	}
	for _, in := range dangerous {
		if SafeAgainstSQLInjection(in) {
			t.Fatalf("expected %q to be flagged", in)
		}
	}

	if !SafeAgainstSQLInjection("alice_miller") {
		t.Fatalf("plain username flagged as injection")
	}
}

func TestSanitizeHTML(t *testing.T) {
	got := SanitizeHTML(`<b>"Rosen" & 'Tulpen'</b> 1/2`)
	want := "&lt;b&gt;&quot;Rosen&quot; &amp; &#x27;Tulpen&#x27;&lt;&#x2F;b&gt; 1&#x2F;2"
	if got != want {
		t.Fatalf("SanitizeHTML mismatch:\n got  %q\n want %q", got, want)
	}
}

func TestValidateAndSanitize(t *testing.T) {
	if out, err := ValidateAndSanitize(""); err != nil || out != "" {
		t.Fatalf("empty input must pass untouched, got %q, %v", out, err)
	}

	if _, err := ValidateAndSanitize("<script>x</script>"); !errors.Is(err, domain.ErrValidationFailed) {
		t.Fatalf("expected ErrValidationFailed for script tag, got %v", err)
	}

	if _, err := ValidateAndSanitize(strings.Repeat("a", 10001)); !errors.Is(err, domain.ErrValidationFailed) {
		t.Fatalf("expected ErrValidationFailed for oversized input, got %v", err)
	}

	out, err := ValidateAndSanitize("Müller & Söhne")
	if err != nil {
		t.Fatalf("benign input rejected: %v", err)
	}
	if out != "Müller &amp; Söhne" {
		t.Fatalf("unexpected sanitized output: %q", out)
	}
}

func TestPasswordWeaknesses(t *testing.T) {
	if issues := PasswordWeaknesses("S3cret!pass"); len(issues) != 0 {
		t.Fatalf("expected no issues, got %v", issues)
	}

	issues := PasswordWeaknesses("abc")
	joined := strings.Join(issues, "; ")
	for _, want := range []string{
		"at least 8 characters",
		"uppercase letter",
		"number",
		"special character",
	} {
		if !strings.Contains(joined, want) {
			t.Fatalf("expected issue %q in %v", want, issues)
		}
	}
	if strings.Contains(joined, "lowercase") {
		t.Fatalf("lowercase rule should pass for %q: %v", "abc", issues)
	}
}

func TestValidateRegistration_Valid(t *testing.T) {
	c := New()
	in := ports.RegistrationInput{
		Username:  "alice_m",
		Firstname: "Alice",
		Lastname:  "Müller",
		Email:     "alice@example.com",
		Password:  "S3cret!pass",
	}
	if fe := c.ValidateRegistration(in); fe != nil {
		t.Fatalf("expected valid payload, got %v", fe)
	}
}

func TestValidateRegistration_FieldMessages(t *testing.T) {
	c := New()
	in := ports.RegistrationInput{
		Username:  "bad!user",
		Firstname: "",
		Lastname:  "Miller",
		Email:     "not-an-email",
		Password:  "weak",
	}

	fe := c.ValidateRegistration(in)
	if fe == nil {
		t.Fatalf("expected field errors")
	}
	if !errors.Is(fe, domain.ErrValidationFailed) {
		t.Fatalf("FieldErrors must unwrap to ErrValidationFailed")
	}

	if msg := fe["username"]; !strings.Contains(msg, "letters, numbers, underscores") {
		t.Fatalf("unexpected username message: %q", msg)
	}
	if msg := fe["firstname"]; !strings.Contains(msg, "required") {
		t.Fatalf("unexpected firstname message: %q", msg)
	}
	if msg := fe["email"]; !strings.Contains(msg, "valid email") {
		t.Fatalf("unexpected email message: %q", msg)
	}
	if msg := fe["password"]; !strings.Contains(msg, "at least 8 characters") {
		t.Fatalf("unexpected password message: %q", msg)
	}
	if _, ok := fe["lastname"]; ok {
		t.Fatalf("lastname should be valid: %v", fe)
	}
}

// Injection screening wins over struct validation for the same field.
func TestValidateRegistration_ScreensFreeText(t *testing.T) {
	c := New()
	in := ports.RegistrationInput{
		Username:  "alice_m",
		Firstname: "<script>alert(1)</script>",
		Lastname:  "Miller",
		Email:     "alice@example.com",
		Password:  "S3cret!pass",
	}

	fe := c.ValidateRegistration(in)
	if fe == nil {
		t.Fatalf("expected field errors")
	}
	if fe["firstname"] != "contains potentially dangerous content" {
		t.Fatalf("unexpected firstname message: %q", fe["firstname"])
	}
}
