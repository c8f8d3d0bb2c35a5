package workflow

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"reportqa/internal/llm/mocks"
	"reportqa/internal/retry"
	"reportqa/internal/service"
	"reportqa/internal/vectorstore"
)

type fakeRetriever struct {
	chunks   []vectorstore.ScoredChunk
	err      error
	gotQuery string
	gotYears []int
	calls    int
}

func (f *fakeRetriever) Retrieve(ctx context.Context, query string, years []int) ([]vectorstore.ScoredChunk, error) {
	f.calls++
	f.gotQuery = query
	f.gotYears = years
	return f.chunks, f.err
}

func testPolicy() retry.Policy {
	return retry.Policy{Attempts: 2, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func chunk(id, source, content string) vectorstore.ScoredChunk {
	return vectorstore.ScoredChunk{
		Chunk: vectorstore.Chunk{ID: id, Content: content, Source: source, Year: 2023},
		Score: 0.5,
	}
}

func TestRunHappyPath(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	gen := mocks.NewMockGenerator(ctrl)
	gen.EXPECT().
		Generate(gomock.Any(), rewriteSystemPrompt, gomock.Any()).
		Return(`{"query": "NTT DATA sustainability initiatives", "years": [2023]}`, nil)
	gen.EXPECT().
		Generate(gomock.Any(), generateSystemPrompt, gomock.Any()).
		DoAndReturn(func(_ context.Context, _, prompt string) (string, error) {
			if !strings.Contains(prompt, "[annual_report_2023.md]") {
				t.Errorf("prompt missing source heading:\n%s", prompt)
			}
			if !strings.Contains(prompt, "green data centers") {
				t.Errorf("prompt missing chunk content:\n%s", prompt)
			}
			if !strings.Contains(prompt, "Question: What were NTT DATA's sustainability initiatives in 2023?") {
				t.Errorf("prompt should carry the original question:\n%s", prompt)
			}
			return "  NTT DATA invested in green data centers.  ", nil
		})

	retriever := &fakeRetriever{chunks: []vectorstore.ScoredChunk{
		chunk("a", "annual_report_2023.md", "Investments in green data centers grew."),
		chunk("b", "annual_report_2023.md", "Emissions targets were tightened."),
		chunk("c", "esg_report_2023.md", "Renewable energy share reached 40%."),
	}}

	wf := New(gen, retriever, testPolicy())
	state, err := wf.Run(context.Background(), "What were NTT DATA's sustainability initiatives in 2023?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.RewrittenQuestion != "NTT DATA sustainability initiatives" {
		t.Errorf("rewritten question = %q", state.RewrittenQuestion)
	}
	if len(state.Years) != 1 || state.Years[0] != 2023 {
		t.Errorf("years = %v", state.Years)
	}
	if retriever.gotQuery != "NTT DATA sustainability initiatives" {
		t.Errorf("retriever received query %q", retriever.gotQuery)
	}
	if len(retriever.gotYears) != 1 || retriever.gotYears[0] != 2023 {
		t.Errorf("retriever received years %v", retriever.gotYears)
	}
	if state.Answer != "NTT DATA invested in green data centers." {
		t.Errorf("answer = %q", state.Answer)
	}
	want := []string{"annual_report_2023.md", "esg_report_2023.md"}
	if len(state.Sources) != len(want) || state.Sources[0] != want[0] || state.Sources[1] != want[1] {
		t.Errorf("sources = %v, want %v", state.Sources, want)
	}
}

func TestRunRewriteFailureFallsBack(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	gen := mocks.NewMockGenerator(ctrl)
	gen.EXPECT().
		Generate(gomock.Any(), rewriteSystemPrompt, gomock.Any()).
		Return("", service.GenerationError("chat completion", errors.New("bad request")))
	gen.EXPECT().
		Generate(gomock.Any(), generateSystemPrompt, gomock.Any()).
		Return("answer", nil)

	retriever := &fakeRetriever{chunks: []vectorstore.ScoredChunk{chunk("a", "report.md", "text")}}

	wf := New(gen, retriever, testPolicy())
	state, err := wf.Run(context.Background(), "original question")
	if err != nil {
		t.Fatalf("rewrite failure must not abort the pipeline: %v", err)
	}
	if state.RewrittenQuestion != "original question" {
		t.Errorf("expected fallback to original question, got %q", state.RewrittenQuestion)
	}
	if retriever.gotQuery != "original question" || retriever.gotYears != nil {
		t.Errorf("retriever received %q / %v", retriever.gotQuery, retriever.gotYears)
	}
}

func TestRunRewriteMalformedOutputFallsBack(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	gen := mocks.NewMockGenerator(ctrl)
	gen.EXPECT().
		Generate(gomock.Any(), rewriteSystemPrompt, gomock.Any()).
		Return("Sure! Here is a rewritten query for you.", nil)
	gen.EXPECT().
		Generate(gomock.Any(), generateSystemPrompt, gomock.Any()).
		Return("answer", nil)

	retriever := &fakeRetriever{}

	wf := New(gen, retriever, testPolicy())
	state, err := wf.Run(context.Background(), "question")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.RewrittenQuestion != "question" || state.Years != nil {
		t.Errorf("expected fallback state, got %q / %v", state.RewrittenQuestion, state.Years)
	}
}

func TestRunRetrievalFailureAborts(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	gen := mocks.NewMockGenerator(ctrl)
	gen.EXPECT().
		Generate(gomock.Any(), rewriteSystemPrompt, gomock.Any()).
		Return(`{"query": "q", "years": []}`, nil)
	// The generate stage must never run.

	retriever := &fakeRetriever{err: service.SearchError("hybrid search", errors.New("down"))}

	wf := New(gen, retriever, testPolicy())
	_, err := wf.Run(context.Background(), "question")
	if !errors.Is(err, service.ErrSearch) {
		t.Fatalf("expected ErrSearch, got %v", err)
	}
}

func TestRunGenerationFailureAborts(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	gen := mocks.NewMockGenerator(ctrl)
	gen.EXPECT().
		Generate(gomock.Any(), rewriteSystemPrompt, gomock.Any()).
		Return(`{"query": "q", "years": []}`, nil)
	gen.EXPECT().
		Generate(gomock.Any(), generateSystemPrompt, gomock.Any()).
		Return("", service.GenerationError("chat completion", errors.New("quota")))

	retriever := &fakeRetriever{chunks: []vectorstore.ScoredChunk{chunk("a", "report.md", "text")}}

	wf := New(gen, retriever, testPolicy())
	_, err := wf.Run(context.Background(), "question")
	if !errors.Is(err, service.ErrGeneration) {
		t.Fatalf("expected ErrGeneration, got %v", err)
	}
}

func TestRunNoChunksStillGenerates(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	gen := mocks.NewMockGenerator(ctrl)
	gen.EXPECT().
		Generate(gomock.Any(), rewriteSystemPrompt, gomock.Any()).
		Return(`{"query": "q", "years": []}`, nil)
	gen.EXPECT().
		Generate(gomock.Any(), generateSystemPrompt, gomock.Any()).
		DoAndReturn(func(_ context.Context, _, prompt string) (string, error) {
			if !strings.Contains(prompt, emptyContextNote) {
				t.Errorf("prompt should note the empty context:\n%s", prompt)
			}
			return "I cannot answer that from the available reports.", nil
		})

	retriever := &fakeRetriever{}

	wf := New(gen, retriever, testPolicy())
	state, err := wf.Run(context.Background(), "question")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(state.Sources) != 0 {
		t.Errorf("expected no sources, got %v", state.Sources)
	}
	if state.Answer == "" {
		t.Error("expected a decline answer")
	}
}

func TestRunRetriesTransientGeneration(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	gen := mocks.NewMockGenerator(ctrl)
	gen.EXPECT().
		Generate(gomock.Any(), rewriteSystemPrompt, gomock.Any()).
		Return(`{"query": "q", "years": []}`, nil)
	transient := retry.MarkTransient(service.GenerationError("chat completion", errors.New("overloaded")))
	gomock.InOrder(
		gen.EXPECT().
			Generate(gomock.Any(), generateSystemPrompt, gomock.Any()).
			Return("", transient),
		gen.EXPECT().
			Generate(gomock.Any(), generateSystemPrompt, gomock.Any()).
			Return("answer", nil),
	)

	retriever := &fakeRetriever{chunks: []vectorstore.ScoredChunk{chunk("a", "report.md", "text")}}

	wf := New(gen, retriever, testPolicy())
	state, err := wf.Run(context.Background(), "question")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.Answer != "answer" {
		t.Errorf("answer = %q", state.Answer)
	}
}

func TestParseRewriteOutput(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantQuery string
		wantYears []int
		wantErr   bool
	}{
		{
			name:      "plain json",
			raw:       `{"query": "revenue growth", "years": [2022, 2023]}`,
			wantQuery: "revenue growth",
			wantYears: []int{2022, 2023},
		},
		{
			name:      "fenced json",
			raw:       "```json\n{\"query\": \"revenue growth\", \"years\": []}\n```",
			wantQuery: "revenue growth",
			wantYears: []int{},
		},
		{
			name:      "bare fence",
			raw:       "```\n{\"query\": \"q\", \"years\": [2021]}\n```",
			wantQuery: "q",
			wantYears: []int{2021},
		},
		{
			name:    "prose instead of json",
			raw:     "Here is the rewritten query: revenue growth",
			wantErr: true,
		},
		{
			name:    "empty query",
			raw:     `{"query": "  ", "years": [2023]}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := parseRewriteOutput(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", out)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if out.Query != tt.wantQuery {
				t.Errorf("query = %q, want %q", out.Query, tt.wantQuery)
			}
			if len(out.Years) != len(tt.wantYears) {
				t.Fatalf("years = %v, want %v", out.Years, tt.wantYears)
			}
			for i := range out.Years {
				if out.Years[i] != tt.wantYears[i] {
					t.Errorf("years = %v, want %v", out.Years, tt.wantYears)
				}
			}
		})
	}
}
