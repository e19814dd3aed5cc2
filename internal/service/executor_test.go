package service

import (
	"strings"
	"testing"
)

func TestIsManipulation(t *testing.T) {
	manipulation := []string{
		"INSERT INTO inventory VALUES (1)",
		"update products set price = 1",
		"DELETE FROM transactions WHERE id = 1",
		"Alter table products add column x int",
		"DROP TABLE products",
		"create table t (id int)",
		"TRUNCATE transactions",
	}
	for _, sql := range manipulation {
		if !IsManipulation(sql) {
			t.Errorf("IsManipulation(%q) = false, want true", sql)
		}
	}
	readOnly := []string{
		"SELECT * FROM products",
		"select count(*) from inventory",
		"WITH t AS (SELECT 1) SELECT * FROM t",
		"",
	}
	for _, sql := range readOnly {
		if IsManipulation(sql) {
			t.Errorf("IsManipulation(%q) = true, want false", sql)
		}
	}
}

func TestValidateStatement(t *testing.T) {
	valid := []string{
		"SELECT * FROM products WHERE id = 1",
		"UPDATE inventory SET quantity = 5 WHERE product_id = 1;",
		"SELECT p.name FROM products p JOIN inventory i ON i.product_id = p.id",
		"INSERT INTO purchase_orders (quantity) VALUES (10)",
		"TRUNCATE transactions",
		"TRUNCATE TABLE transactions",
	}
	for _, sql := range valid {
		if err := ValidateStatement(sql); err != nil {
			t.Errorf("ValidateStatement(%q) = %v, want nil", sql, err)
		}
	}

	invalid := map[string]string{
		"":                                      "empty",
		"SELECT 1; DROP TABLE products":         "multiple statements",
		"SELECT * FROM products -- hidden":      "comments",
		"SELECT /* x */ * FROM products":        "comments",
		"SELECT * FROM risk_alerts":             "not allowed",
		"DELETE FROM session_roles":             "not allowed",
		"UPDATE members SET role = 'admin'":     "not allowed",
		"SELECT * FROM pg_catalog.pg_tables":    "not allowed",
		"TRUNCATE risk_alerts":                  "not allowed",
		"TRUNCATE TABLE members":                "not allowed",
		"DROP SEQUENCE risk_alerts_id_seq":      "not allowed",
		"DROP INDEX uk_product_warehouse":       "not allowed",
	}
	for sql, wantSub := range invalid {
		err := ValidateStatement(sql)
		if err == nil {
			t.Errorf("ValidateStatement(%q) = nil, want error containing %q", sql, wantSub)
			continue
		}
		if !strings.Contains(err.Error(), wantSub) {
			t.Errorf("ValidateStatement(%q) = %v, want error containing %q", sql, err, wantSub)
		}
	}
}

func TestValidateStatementProtectsAuditTrail(t *testing.T) {
	// 审计记录只增改不删，任何形式的清表都不能碰到 risk_alerts
	for _, sql := range []string{
		"TRUNCATE risk_alerts",
		"TRUNCATE TABLE risk_alerts",
		"DELETE FROM risk_alerts",
		"DROP TABLE risk_alerts",
	} {
		if err := ValidateStatement(sql); err == nil {
			t.Errorf("ValidateStatement(%q) = nil, audit table must be unreachable", sql)
		}
	}
}

func TestResolvePlaceholders(t *testing.T) {
	sql := "INSERT INTO purchase_orders (created_by, bill_url) VALUES ('{{current_user}}', '{{bill_url}}')"

	out, err := ResolvePlaceholders(sql, "张伟", "https://files.example.com/bill-42.pdf")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !strings.Contains(out, "'张伟'") || !strings.Contains(out, "bill-42.pdf") {
		t.Errorf("placeholders not substituted: %s", out)
	}

	// 同样的输入必须产出同样的语句
	again, _ := ResolvePlaceholders(sql, "张伟", "https://files.example.com/bill-42.pdf")
	if out != again {
		t.Error("substitution is not deterministic")
	}
}

func TestResolvePlaceholdersFailsClosed(t *testing.T) {
	sql := "INSERT INTO purchase_orders (created_by, bill_url) VALUES ('{{current_user}}', '{{bill_url}}')"
	if _, err := ResolvePlaceholders(sql, "张伟", ""); err == nil {
		t.Fatal("unresolved {{bill_url}} must fail closed")
	}
	if _, err := ResolvePlaceholders("SELECT '{{unknown_token}}'", "u", "b"); err == nil {
		t.Fatal("unknown placeholder must fail closed")
	}
}

func TestResolvePlaceholdersEscapesQuotes(t *testing.T) {
	out, err := ResolvePlaceholders("SELECT '{{current_user}}'", "o'brien", "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !strings.Contains(out, "o''brien") {
		t.Errorf("single quote not escaped: %s", out)
	}
}
