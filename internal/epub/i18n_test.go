package epub

import "testing"

func TestTranslate(t *testing.T) {
	tests := []struct {
		lang string
		key  string
		want string
	}{
		{"en", "toc", "Table of Contents"},
		{"ja", "toc", "目次"},
		{"ja-JP", "cover", "表紙"},
		{"zh-CN", "toc", "目录"},
		{"zh-TW", "toc", "目錄"},
		// Unsupported language falls back to the English table.
		{"fr", "toc", "Table of Contents"},
		{"", "cover", "Cover"},
		// Unknown key falls back to the key itself.
		{"en", "colophon", "colophon"},
		{"ja", "colophon", "colophon"},
	}

	for _, tt := range tests {
		if got := Translate(tt.lang, tt.key); got != tt.want {
			t.Errorf("Translate(%q, %q) = %q, want %q", tt.lang, tt.key, got, tt.want)
		}
	}
}

func TestBookTranslate_FollowsLanguageMetadata(t *testing.T) {
	b := newTestBook(newFakeFetcher())
	if got := b.Translate("toc"); got != "Table of Contents" {
		t.Errorf("Translate(toc) = %q, want English default", got)
	}

	b.SetInfo("language", "ja", nil)
	if got := b.Translate("toc"); got != "目次" {
		t.Errorf("Translate(toc) after language change = %q, want 目次", got)
	}
}
