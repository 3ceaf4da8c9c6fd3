package extract

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/felixgeelhaar/exemplar/internal/domain"
)

func TestTryStructured(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []domain.TestCase
	}{
		{
			name: "block grammar",
			text: "测试用例1:\n输入：\n1 2\n输出：\n3\n\n测试用例2：\n输入：\n5 5\n输出：\n10",
			want: []domain.TestCase{
				{Input: "1 2", Output: "3"},
				{Input: "5 5", Output: "10"},
			},
		},
		{
			name: "block skips segment without output",
			text: "测试用例1:\n输入：\n1\n测试用例2:\n输入：\n2\n输出：\n4",
			want: []domain.TestCase{{Input: "2", Output: "4"}},
		},
		{
			name: "inline complete",
			text: "输入1：a\n输出1：b\n输入2：c\n输出2：d",
			want: []domain.TestCase{
				{Input: "a", Output: "b"},
				{Input: "c", Output: "d"},
			},
		},
		{
			name: "inline missing output",
			text: "输入1：a\n输出1：b\n输入2：c",
			want: []domain.TestCase{
				{Input: "a", Output: "b"},
				{Input: "c", Output: "", NeedsManualReview: true},
			},
		},
		{
			name: "inline multi-line bodies",
			text: "输入1：\n3\n1 2 3\n输出1：\n6",
			want: []domain.TestCase{{Input: "3\n1 2 3", Output: "6"}},
		},
		{
			name: "inline first occurrence wins",
			text: "输入1：a\n输出1：b\n输入1：c",
			want: []domain.TestCase{{Input: "a", Output: "b"}},
		},
		{
			name: "inline gap is flagged",
			text: "输入2：a\n输出2：b",
			want: []domain.TestCase{
				{NeedsManualReview: true},
				{Input: "a", Output: "b"},
			},
		},
		{
			name: "inline empty label is present",
			text: "输入1：\n输出1：hello",
			want: []domain.TestCase{{Input: "", Output: "hello"}},
		},
		{
			name: "inline ascii colon and crlf",
			text: "输入1: a\r\n输出1: b",
			want: []domain.TestCase{{Input: "a", Output: "b"}},
		},
		{name: "no labels", text: "hello\nworld"},
		{name: "unnumbered labels", text: "输入：1\n输出：2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TryStructured(tt.text)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("TryStructured() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTryStructured_IgnoresHugeIndex(t *testing.T) {
	got := TryStructured("输入1：a\n输出1：b\n输入2024：c")
	want := []domain.TestCase{{Input: "a", Output: "b"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("TryStructured() mismatch (-want +got):\n%s", diff)
	}
}
