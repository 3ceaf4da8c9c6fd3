package fixture

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/felixgeelhaar/exemplar/internal/domain"
)

func newTestService() *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(NewMemoryStore(), nil, logger)
}

func TestService_Extract(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	set, err := svc.Extract(ctx, ExtractRequest{
		Title:     "A+B",
		CasesText: "输入1：1 2\n输出1：3\n输入2：4",
	})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	if set.Strategy != "structured" {
		t.Errorf("Strategy = %q, want structured", set.Strategy)
	}
	want := domain.TestCaseList{
		{Input: "1 2", Output: "3"},
		{Input: "4", NeedsManualReview: true},
	}
	if diff := cmp.Diff(want, set.Cases); diff != "" {
		t.Errorf("Cases mismatch (-want +got):\n%s", diff)
	}

	stored, err := svc.Get(ctx, set.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if diff := cmp.Diff(set.Cases, stored.Cases); diff != "" {
		t.Errorf("stored cases mismatch (-want +got):\n%s", diff)
	}
	if stored.Source.CasesText != "输入1：1 2\n输出1：3\n输入2：4" {
		t.Errorf("Source.CasesText = %q", stored.Source.CasesText)
	}
}

func TestService_Extract_DefaultTitle(t *testing.T) {
	set, err := newTestService().Extract(context.Background(), ExtractRequest{})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if set.Title != "untitled" || set.Strategy != "empty" || len(set.Cases) != 1 {
		t.Errorf("set = %+v", set)
	}
}

func TestService_UpdateCase(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	set, _ := svc.Extract(ctx, ExtractRequest{CasesText: "输入1：1 2\n输出1：3\n输入2：4"})

	tests := []struct {
		name     string
		index    int
		input    string
		output   string
		wantFlag bool
		wantErr  error
	}{
		{name: "completes flagged case", index: 1, input: "4", output: "16"},
		{name: "blanking output flags", index: 0, input: "1 2", output: "", wantFlag: true},
		{name: "out of range", index: 5, input: "x", output: "y", wantErr: domain.ErrCaseIndexOutOfRange},
		{name: "negative index", index: -1, wantErr: domain.ErrCaseIndexOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			updated, err := svc.UpdateCase(ctx, set.ID, tt.index, tt.input, tt.output)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("UpdateCase() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("UpdateCase() error = %v", err)
			}
			got := updated.Cases[tt.index]
			if got.Input != tt.input || got.Output != tt.output || got.NeedsManualReview != tt.wantFlag {
				t.Errorf("case = %+v", got)
			}
		})
	}

	// the value returned by Extract is not touched by later edits
	if set.Cases[1].Output != "" {
		t.Errorf("original set mutated: %+v", set.Cases[1])
	}
}

func TestService_UpdateCase_UnknownSet(t *testing.T) {
	_, err := newTestService().UpdateCase(context.Background(), uuid.New(), 0, "a", "b")
	if !errors.Is(err, domain.ErrFixtureSetNotFound) {
		t.Errorf("UpdateCase() error = %v, want %v", err, domain.ErrFixtureSetNotFound)
	}
}

func TestService_Export(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	set, _ := svc.Extract(ctx, ExtractRequest{CasesText: "输入1：1 2  \r\n输出1：3\n"})

	data, err := svc.Export(ctx, set.ID)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	var got []map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	want := []map[string]any{{"input": "1 2", "output": "3"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Export() mismatch (-want +got):\n%s", diff)
	}
}

func TestService_ListAndDelete(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	first, _ := svc.Extract(ctx, ExtractRequest{Title: "first", CasesText: "1\n---\n1"})
	time.Sleep(time.Millisecond)
	second, _ := svc.Extract(ctx, ExtractRequest{Title: "second", CasesText: "2\n---\n4"})

	sets, err := svc.List(ctx, 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(sets) != 2 || sets[0].ID != second.ID {
		t.Errorf("List() = %d sets, newest first expected", len(sets))
	}

	if err := svc.Delete(ctx, first.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := svc.Delete(ctx, first.ID); !errors.Is(err, domain.ErrFixtureSetNotFound) {
		t.Errorf("second Delete() error = %v, want %v", err, domain.ErrFixtureSetNotFound)
	}

	sets, _ = svc.List(ctx, 1)
	if len(sets) != 1 || sets[0].ID != second.ID {
		t.Errorf("List() after delete = %v", sets)
	}
}

type failingStore struct{ *MemoryStore }

func (failingStore) Save(context.Context, *domain.FixtureSet) error {
	return errors.New("disk full")
}

func TestService_Extract_StoreError(t *testing.T) {
	svc := NewService(failingStore{NewMemoryStore()}, nil, nil)
	if _, err := svc.Extract(context.Background(), ExtractRequest{CasesText: "a"}); err == nil {
		t.Error("Extract() expected error")
	}
}
