package manager

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/b4fun/grammarkeeper-go/backend"
	"github.com/b4fun/grammarkeeper-go/diagnostic"
	"github.com/b4fun/grammarkeeper-go/events"
	"github.com/b4fun/grammarkeeper-go/grammars"
	"github.com/b4fun/grammarkeeper-go/merge"
	"github.com/b4fun/grammarkeeper-go/types"
	"github.com/b4fun/grammarkeeper-go/versionstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"
)

const foreachCode = "Для каждого x Из arr Цикл\n    Сообщить(x);\nКонецЦикла;"

var foreachProposal = merge.Proposal{
	Fragment: `# UPDATE_RULE: statement |= foreach_statement
foreach_statement = "Для" "каждого" IDENTIFIER "Из" expression "Цикл" statement+ "КонецЦикла" ";"?
`,
	Description: "for each loops",
	CreatedBy:   "agent-7",
}

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type recordingPublisher struct {
	events []events.Event
}

func (p *recordingPublisher) Publish(e events.Event) error {
	p.events = append(p.events, e)
	return nil
}

type failingSaveStore struct {
	versionstore.Store
	err error
}

func (s *failingSaveStore) Save(v *versionstore.GrammarVersion) error {
	if s.err != nil {
		return s.err
	}
	return s.Store.Save(v)
}

func newFileStore(t *testing.T) *versionstore.FileStore {
	t.Helper()
	store, err := versionstore.NewFileStore(t.TempDir(), versionstore.WithLogger(quietLogger))
	require.NoError(t, err)
	return store
}

func newOneCManager(t *testing.T, opts ...Option) (*Manager, versionstore.Store) {
	t.Helper()
	store := newFileStore(t)
	opts = append([]Option{WithLogger(quietLogger), WithInitialGrammar(grammars.OneC)}, opts...)
	m, err := New(store, backend.NewPEG(), opts...)
	require.NoError(t, err)
	return m, store
}

func versionCount(t *testing.T, store versionstore.Store) int {
	t.Helper()
	versions, err := store.List()
	require.NoError(t, err)
	return len(versions)
}

func TestNew_Initialization(t *testing.T) {
	t.Run("explicit initial grammar", func(t *testing.T) {
		m, store := newOneCManager(t)

		current := m.Current()
		assert.Equal(t, versionstore.CreatedByInitialization, current.CreatedBy)
		assert.Equal(t, grammars.OneC, current.Grammar)

		stored, err := store.Load(current.ID)
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, grammars.OneC, stored.Grammar)
	})

	t.Run("latest stored version is reused", func(t *testing.T) {
		store := newFileStore(t)
		first, err := New(store, backend.NewPEG(), WithLogger(quietLogger), WithInitialGrammar(grammars.OneC))
		require.NoError(t, err)

		second, err := New(store, backend.NewPEG(), WithLogger(quietLogger))
		require.NoError(t, err)
		assert.Equal(t, first.Current().ID, second.Current().ID)
		assert.Equal(t, 1, versionCount(t, store))
	})

	t.Run("placeholder without base file", func(t *testing.T) {
		store := newFileStore(t)
		m, err := New(store, backend.NewPEG(),
			WithLogger(quietLogger),
			WithBaseGrammarFile(filepath.Join(t.TempDir(), "missing.peg")))
		require.NoError(t, err)

		assert.Equal(t, grammars.Placeholder, m.Current().Grammar)
		assert.Equal(t, versionstore.CreatedByInitialization, m.Current().CreatedBy)
		assert.Equal(t, 1, versionCount(t, store))

		_, err = m.Parse("alpha; beta;")
		assert.NoError(t, err)
	})

	t.Run("UTF-16 base file", func(t *testing.T) {
		encoded, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().String(grammars.OneC)
		require.NoError(t, err)
		path := filepath.Join(t.TempDir(), "base.peg")
		require.NoError(t, os.WriteFile(path, []byte(encoded), 0o644))

		m, err := New(newFileStore(t), backend.NewPEG(), WithLogger(quietLogger), WithBaseGrammarFile(path))
		require.NoError(t, err)
		assert.Equal(t, grammars.OneC, m.Current().Grammar)
	})

	t.Run("invalid initial grammar", func(t *testing.T) {
		store := newFileStore(t)
		_, err := New(store, backend.NewPEG(), WithLogger(quietLogger), WithInitialGrammar(`start = ("x"`))

		var compileErr *backend.CompilationError
		assert.ErrorAs(t, err, &compileErr)
		assert.Equal(t, 0, versionCount(t, store))
	})
}

func TestManager_Parse(t *testing.T) {
	m, _ := newOneCManager(t)

	t.Run("valid code", func(t *testing.T) {
		tree, err := m.Parse("Перем x; x = 5;")
		require.NoError(t, err)

		statements := tree.FindAll("statement")
		require.Len(t, statements, 2)
		assert.NotNil(t, statements[0].Find("var_declaration"))
		assert.Equal(t, "x = 5;", statements[1].Find("assignment").Text)
	})

	t.Run("missing end of if", func(t *testing.T) {
		_, err := m.Parse("Если x > 3 Тогда\n    x = x - 1;")

		var syntaxErr *diagnostic.SyntaxError
		require.ErrorAs(t, err, &syntaxErr)
		d := syntaxErr.Diagnostic
		assert.Equal(t, diagnostic.KindUnexpectedToken, d.Kind)
		assert.Equal(t, types.EndOfInput, d.Offending)
		assert.Contains(t, d.Expected, `"КонецЕсли"`)
		assert.Equal(t, 2, d.Line)
		assert.Equal(t, "    x = x - 1;", d.LineText)
		assert.Contains(t, d.Context, "-> 2:     x = x - 1;")
		assert.Contains(t, d.Context, "   1: Если x > 3 Тогда")

		var tokenErr *types.ErrUnexpectedToken
		assert.ErrorAs(t, err, &tokenErr)
	})

	t.Run("unknown loop form", func(t *testing.T) {
		_, err := m.Parse(foreachCode)

		var syntaxErr *diagnostic.SyntaxError
		require.ErrorAs(t, err, &syntaxErr)
		assert.Equal(t, 1, syntaxErr.Diagnostic.Line)
		assert.Equal(t, "x", syntaxErr.Diagnostic.Offending)
	})
}

func TestManager_Extend(t *testing.T) {
	t.Run("commits and parses new construct", func(t *testing.T) {
		publisher := &recordingPublisher{}
		m, store := newOneCManager(t, WithPublisher(publisher))
		initial := m.Current()

		result, err := m.Extend(foreachProposal)
		require.NoError(t, err)

		assert.Len(t, result.Applied, 1)
		assert.Empty(t, result.Mismatched)
		assert.Equal(t, "agent-7", result.Version.CreatedBy)
		assert.Equal(t, result.Version.ID, m.Current().ID)
		assert.Contains(t, m.Current().Grammar, "# Extension: for each loops")
		assert.Equal(t, 2, versionCount(t, store))

		tree, err := m.Parse(foreachCode)
		require.NoError(t, err)
		assert.NotNil(t, tree.Find("foreach_statement"))

		require.Len(t, publisher.events, 1)
		assert.Equal(t, events.KindCommitted, publisher.events[0].Kind)
		assert.Equal(t, initial.ID, publisher.events[0].PreviousVersionID)
		assert.Equal(t, []string{"statement |= foreach_statement"}, publisher.events[0].Applied)
	})

	t.Run("commits applied directives and reports mismatched ones", func(t *testing.T) {
		publisher := &recordingPublisher{}
		m, store := newOneCManager(t, WithPublisher(publisher))

		result, err := m.Extend(merge.Proposal{
			Fragment: foreachProposal.Fragment +
				"# UPDATE_RULE: loop_statement |= foreach_statement\n",
			Description: "for each loops",
			CreatedBy:   "agent-7",
		})
		require.NoError(t, err)

		require.Len(t, result.Applied, 1)
		assert.Equal(t, "statement", result.Applied[0].Rule)
		require.Len(t, result.Mismatched, 1)
		assert.Equal(t, "loop_statement", result.Mismatched[0].Rule)
		assert.Equal(t, "foreach_statement", result.Mismatched[0].Alternative)

		assert.Equal(t, result.Version.ID, m.Current().ID)
		assert.Equal(t, 2, versionCount(t, store))
		require.Len(t, publisher.events, 1)
		assert.Equal(t, []string{"statement |= foreach_statement"}, publisher.events[0].Applied)

		_, err = m.Parse(foreachCode)
		assert.NoError(t, err)
	})

	t.Run("invalid fragment leaves state untouched", func(t *testing.T) {
		publisher := &recordingPublisher{}
		m, store := newOneCManager(t, WithPublisher(publisher))
		before := m.Current()

		_, err := m.Extend(merge.Proposal{
			Fragment:    "# UPDATE_RULE: statement |= broken\nbroken = (\"x\"",
			Description: "broken",
		})
		require.Error(t, err)
		assert.True(t, IsRejected(err))

		assert.Equal(t, before.ID, m.Current().ID)
		assert.Equal(t, 1, versionCount(t, store))
		assert.Empty(t, publisher.events)

		_, err = m.Parse("Перем x;")
		assert.NoError(t, err)
	})

	t.Run("undefined rule reference is rejected", func(t *testing.T) {
		m, _ := newOneCManager(t)
		before := m.Current()

		_, err := m.Extend(merge.Proposal{Fragment: "# UPDATE_RULE: statement |= missing_rule\n"})
		require.Error(t, err)

		var undefinedErr *types.ErrUndefinedRule
		assert.ErrorAs(t, err, &undefinedErr)
		assert.Equal(t, before.ID, m.Current().ID)
	})

	t.Run("storage failure leaves state untouched", func(t *testing.T) {
		store := &failingSaveStore{Store: newFileStore(t)}
		m, err := New(store, backend.NewPEG(), WithLogger(quietLogger), WithInitialGrammar(grammars.OneC))
		require.NoError(t, err)
		before := m.Current()

		store.err = errors.New("disk full")
		_, err = m.Extend(foreachProposal)
		require.ErrorContains(t, err, "disk full")
		assert.False(t, IsRejected(err))
		assert.Equal(t, before.ID, m.Current().ID)

		_, err = m.Parse(foreachCode)
		assert.Error(t, err)
	})

	t.Run("smoke test", func(t *testing.T) {
		m, _ := newOneCManager(t, WithSmokeTest("Перем x;"))
		before := m.Current()

		_, err := m.AddVersion(grammars.Placeholder, "placeholder", "")
		assert.ErrorIs(t, err, ErrSmokeTestFailed)
		assert.Equal(t, before.ID, m.Current().ID)

		_, err = m.Extend(foreachProposal)
		assert.NoError(t, err)
	})
}

func TestManager_AddVersion(t *testing.T) {
	publisher := &recordingPublisher{}
	m, _ := newOneCManager(t, WithPublisher(publisher))

	v, err := m.AddVersion(grammars.Placeholder, "back to basics", "")
	require.NoError(t, err)
	assert.Equal(t, versionstore.CreatedByManual, v.CreatedBy)
	assert.Equal(t, v.ID, m.Current().ID)

	_, err = m.Parse("alpha;")
	assert.NoError(t, err)

	require.Len(t, publisher.events, 1)
	assert.Equal(t, events.KindAdded, publisher.events[0].Kind)
}

func TestManager_Rollback(t *testing.T) {
	publisher := &recordingPublisher{}
	m, store := newOneCManager(t, WithPublisher(publisher))
	initial := m.Current()

	_, err := m.Extend(foreachProposal)
	require.NoError(t, err)
	extended := m.Current()

	t.Run("unknown id", func(t *testing.T) {
		_, err := m.Rollback("01ARZ3NDEKTSV4RRFFQ69G5FAV")
		assert.ErrorIs(t, err, ErrVersionNotFound)
		assert.Equal(t, extended.ID, m.Current().ID)
	})

	t.Run("stored version that does not compile", func(t *testing.T) {
		broken := versionstore.NewVersion(`start = ("x"`, "broken", versionstore.CreatedByManual)
		require.NoError(t, store.Save(broken))

		_, err := m.Rollback(broken.ID)
		var compileErr *backend.CompilationError
		assert.ErrorAs(t, err, &compileErr)
		assert.Equal(t, extended.ID, m.Current().ID)
	})

	t.Run("restores earlier grammar", func(t *testing.T) {
		v, err := m.Rollback(initial.ID)
		require.NoError(t, err)
		assert.Equal(t, initial.ID, v.ID)
		assert.Equal(t, initial.Grammar, m.Current().Grammar)

		_, err = m.Parse(foreachCode)
		assert.Error(t, err)

		last := publisher.events[len(publisher.events)-1]
		assert.Equal(t, events.KindRolledBack, last.Kind)
		assert.Equal(t, extended.ID, last.PreviousVersionID)
	})
}

func TestManager_BackupExportInfo(t *testing.T) {
	m, _ := newOneCManager(t)
	_, err := m.Extend(foreachProposal)
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "backup")
	manifest, err := m.Backup(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, manifest.VersionsCount)
	assert.Equal(t, m.Current().ID, manifest.CurrentVersionID)

	path := filepath.Join(t.TempDir(), "current.peg")
	require.NoError(t, m.ExportGrammar(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, m.Current().Grammar, string(data))

	info, err := m.Info()
	require.NoError(t, err)
	assert.Equal(t, m.Current().ID, info.CurrentVersionID)
	assert.Equal(t, 2, info.VersionsCount)
	assert.Contains(t, info.Rules, "foreach_statement")
}

func TestDecodeGrammar(t *testing.T) {
	text, err := decodeGrammar(append([]byte{0xEF, 0xBB, 0xBF}, []byte("a = \"б\"")...))
	require.NoError(t, err)
	assert.Equal(t, "a = \"б\"", text)

	encoded, err := unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewEncoder().String("a = \"б\"")
	require.NoError(t, err)
	text, err = decodeGrammar([]byte(encoded))
	require.NoError(t, err)
	assert.Equal(t, "a = \"б\"", text)
}
