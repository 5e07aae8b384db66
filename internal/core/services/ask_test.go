package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/lexrag/internal/core/domain"
	"github.com/custodia-labs/lexrag/internal/core/ports/driven"
	"github.com/custodia-labs/lexrag/internal/core/ports/driving"
)

func testPrompts() fakePrompts {
	return fakePrompts{
		driven.PromptLegalSystem:           "SISTEMA",
		driven.PromptLegalAnswer:           "CONTEXTO:\n%s\nPERGUNTA: %s",
		driven.PromptContractComprehensive: "COMPLETA:\n%s",
		driven.PromptContractSummary:       "RESUMO:\n%s",
		driven.PromptContractCompliance:    "CONFORMIDADE:\n%s",
	}
}

type askFixture struct {
	stack    *testStack
	llm      *fakeLLM
	svc      *AskService
	contract *domain.Document
}

func newAskFixture(t *testing.T) *askFixture {
	t.Helper()
	s := newTestStack(t, newFakeEmbedder())
	s.mustIngest(t, rawText("/docs/lei.txt", leiTeletrabalho, leiHints()))
	contract := s.mustIngest(t, rawText("/docs/contrato.txt", contratoArrendamento, map[string]string{
		domain.HintDocumentType: "contract",
		domain.HintTitle:        "Contrato de arrendamento",
	}))

	search := NewSearchService(s.docs, s.search, s.vectors, s.embedder, domain.RetrievalSettings{})
	llm := &fakeLLM{reply: "  Resposta fundamentada.  "}
	return &askFixture{
		stack:    s,
		llm:      llm,
		svc:      NewAskService(search, s.docs, llm, testPrompts(), 3),
		contract: contract,
	}
}

func TestAskService_Ask_GeneratesAnswer(t *testing.T) {
	f := newAskFixture(t)
	tick := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time {
		tick = tick.Add(250 * time.Millisecond)
		return tick
	}

	answer, err := f.svc.Ask(context.Background(), " O que é o teletrabalho? ", driving.AskOptions{UseLLM: true})

	require.NoError(t, err)
	assert.Equal(t, "O que é o teletrabalho?", answer.Query)
	assert.Equal(t, "Resposta fundamentada.", answer.Text)
	assert.Equal(t, "fake-llm", answer.Model)
	assert.Equal(t, 250*time.Millisecond, answer.ProcessingTime)
	require.NotEmpty(t, answer.Sources)
	assert.LessOrEqual(t, len(answer.Sources), 3)

	require.Len(t, f.llm.prompts, 1)
	prompt := f.llm.prompts[0]
	assert.True(t, strings.HasPrefix(prompt, "CONTEXTO:\n**Documento 1:**\nTítulo: "))
	assert.Contains(t, prompt, "Tipo: ")
	assert.Contains(t, prompt, "Data: ")
	assert.Contains(t, prompt, "Texto: ")
	assert.True(t, strings.HasSuffix(prompt, "PERGUNTA: O que é o teletrabalho?"))
	assert.Equal(t, "SISTEMA", f.llm.opts[0].SystemPrompt)
}

func TestAskService_Ask_SourcesOnly(t *testing.T) {
	f := newAskFixture(t)

	answer, err := f.svc.Ask(context.Background(), "renda mensal", driving.AskOptions{TopK: 1})

	require.NoError(t, err)
	assert.Empty(t, answer.Text)
	assert.Empty(t, answer.Model)
	assert.Len(t, answer.Sources, 1)
	assert.Empty(t, f.llm.prompts)
}

func TestAskService_Ask_NoSourcesSkipsLLM(t *testing.T) {
	f := newAskFixture(t)

	answer, err := f.svc.Ask(context.Background(), "arrendamento", driving.AskOptions{
		UseLLM: true,
		Filter: domain.ChunkFilter{DocumentID: "missing"},
	})

	require.NoError(t, err)
	assert.Empty(t, answer.Sources)
	assert.Empty(t, answer.Text)
	assert.Empty(t, f.llm.prompts)
}

func TestAskService_Ask_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(f *askFixture)
		query   string
		opts    driving.AskOptions
		wantErr error
	}{
		{
			name:    "empty question",
			query:   "  ",
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "llm required but missing",
			mutate:  func(f *askFixture) { f.svc.llm = nil },
			query:   "teletrabalho",
			opts:    driving.AskOptions{UseLLM: true},
			wantErr: domain.ErrLLMUnavailable,
		},
		{
			name:    "llm failure",
			mutate:  func(f *askFixture) { f.llm.err = domain.ErrRateLimited },
			query:   "teletrabalho",
			opts:    driving.AskOptions{UseLLM: true},
			wantErr: domain.ErrRateLimited,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAskFixture(t)
			if tt.mutate != nil {
				tt.mutate(f)
			}

			_, err := f.svc.Ask(context.Background(), tt.query, tt.opts)

			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("missing prompt", func(t *testing.T) {
		f := newAskFixture(t)
		f.svc.SetPromptStore(fakePrompts{})

		_, err := f.svc.Ask(context.Background(), "teletrabalho", driving.AskOptions{UseLLM: true})

		require.Error(t, err)
		assert.Contains(t, err.Error(), driven.PromptLegalSystem)
	})
}

func TestBuildContextBlock(t *testing.T) {
	sources := []domain.SearchResult{
		{
			Document: domain.Document{Title: "Lei n.º 23/2023", Type: domain.DocumentTypeLei, PublicationDate: "2023-05-25"},
			Chunk:    domain.Chunk{Content: strings.Repeat("a", 1500)},
		},
		{
			Chunk: domain.Chunk{Content: "curto"},
		},
	}

	block := buildContextBlock(sources)

	parts := strings.Split(block, "\n\n")
	require.Len(t, parts, 2)
	assert.Equal(t, "**Documento 1:**\nTítulo: Lei n.º 23/2023\nTipo: Lei\nData: 2023-05-25\nTexto: "+
		strings.Repeat("a", 1000)+"...", parts[0])
	assert.Equal(t, "**Documento 2:**\nTítulo: Sem título\nTipo: Desconhecido\nData: Sem data\nTexto: curto...", parts[1])
}

func TestAskService_AnalyzeContract(t *testing.T) {
	f := newAskFixture(t)
	f.llm.reply = `**Resumo**
Contrato de arrendamento urbano.

3. Legislação aplicável:
- Lei n.º 6/2006 (NRAU)
- Código Civil, artigos 1022.º e seguintes

4. Possíveis problemas:
- Falta a indicação do prazo
* Renda sem cláusula de atualização

5. Sugestões de melhorias:
• Indicar o prazo do contrato
`

	res, err := f.svc.AnalyzeContract(context.Background(), f.contract.ID, domain.AnalysisComprehensive)

	require.NoError(t, err)
	assert.Equal(t, f.contract.ID, res.DocumentID)
	assert.Equal(t, domain.AnalysisComprehensive, res.Type)
	assert.Equal(t, "fake-llm", res.Model)
	assert.Equal(t, []string{"Lei n.º 6/2006 (NRAU)", "Código Civil, artigos 1022.º e seguintes"}, res.RelevantLaws)
	assert.Equal(t, []string{"Falta a indicação do prazo", "Renda sem cláusula de atualização"}, res.Issues)
	assert.Equal(t, []string{"Indicar o prazo do contrato"}, res.Suggestions)

	require.Len(t, f.llm.prompts, 1)
	assert.True(t, strings.HasPrefix(f.llm.prompts[0], "COMPLETA:\nContrato de arrendamento urbano"))
	assert.True(t, strings.HasSuffix(f.llm.prompts[0], "..."))
}

func TestAskService_AnalyzeContract_PromptPerType(t *testing.T) {
	tests := []struct {
		analysis domain.AnalysisType
		prefix   string
	}{
		{"", "COMPLETA:"},
		{domain.AnalysisComprehensive, "COMPLETA:"},
		{domain.AnalysisSummary, "RESUMO:"},
		{domain.AnalysisCompliance, "CONFORMIDADE:"},
	}

	for _, tt := range tests {
		t.Run(string(tt.analysis), func(t *testing.T) {
			f := newAskFixture(t)

			_, err := f.svc.AnalyzeContract(context.Background(), f.contract.ID, tt.analysis)

			require.NoError(t, err)
			require.Len(t, f.llm.prompts, 1)
			assert.True(t, strings.HasPrefix(f.llm.prompts[0], tt.prefix))
		})
	}
}

func TestAskService_AnalyzeContract_FallsBackToReferences(t *testing.T) {
	f := newAskFixture(t)
	f.llm.reply = "O contrato parece regular."

	res, err := f.svc.AnalyzeContract(context.Background(), f.contract.ID, domain.AnalysisSummary)

	require.NoError(t, err)
	assert.Equal(t, []string{"Lei n.º 6/2006"}, res.RelevantLaws)
	assert.Empty(t, res.Issues)
	assert.Empty(t, res.Suggestions)
}

func TestAskService_AnalyzeContract_Errors(t *testing.T) {
	t.Run("unknown type", func(t *testing.T) {
		f := newAskFixture(t)
		_, err := f.svc.AnalyzeContract(context.Background(), f.contract.ID, "detailed")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("missing document", func(t *testing.T) {
		f := newAskFixture(t)
		_, err := f.svc.AnalyzeContract(context.Background(), "missing", domain.AnalysisSummary)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("no llm", func(t *testing.T) {
		f := newAskFixture(t)
		f.svc.llm = nil
		_, err := f.svc.AnalyzeContract(context.Background(), f.contract.ID, domain.AnalysisSummary)
		assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
	})

	t.Run("llm failure", func(t *testing.T) {
		f := newAskFixture(t)
		f.llm.err = errors.New("timeout")
		_, err := f.svc.AnalyzeContract(context.Background(), f.contract.ID, domain.AnalysisSummary)
		assert.Error(t, err)
	})
}

func TestParseAnalysisSections(t *testing.T) {
	text := "- item antes de qualquer secção\n" +
		"Leis aplicáveis\n- Decreto-Lei n.º 10/2024\n-\n" +
		"Questões a rever\n- Cláusula penal excessiva\n" +
		"Correções necessárias\n- Reduzir a cláusula penal"

	got := parseAnalysisSections(text)

	assert.Equal(t, []string{"Decreto-Lei n.º 10/2024"}, got.laws)
	assert.Equal(t, []string{"Cláusula penal excessiva"}, got.issues)
	assert.Equal(t, []string{"Reduzir a cláusula penal"}, got.suggestions)
}
