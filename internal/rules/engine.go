package rules

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"os"
	"time"

	"example.com/tigate/internal/teleinfo"
)

type Severity string

const (
	ERROR Severity = "ERROR"
	WARN  Severity = "WARN"
	INFO  Severity = "INFO"
)

type Rule struct {
	RuleId    string         `json:"ruleId"`
	Name      string         `json:"name,omitempty"`
	Scope     string         `json:"scope"` // frame|field|stream
	Severity  Severity       `json:"severity"`
	CheckFunc string         `json:"checkFunction,omitempty"`
	Refs      []string       `json:"refs"`
	Params    map[string]any `json:"params,omitempty"`
	Message   string         `json:"message"`
}

type RulePack struct {
	RulePackId string `json:"rulePackId"`
	Version    string `json:"version"`
	Profile    string `json:"profile"`
	Rules      []Rule `json:"rules"`
}

type Diagnostic struct {
	Ts         time.Time `json:"ts"`
	Source     string    `json:"source"`
	FrameIndex int       `json:"frameIndex"`
	Tag        string    `json:"tag,omitempty"`
	RuleId     string    `json:"ruleId"`
	Severity   Severity  `json:"severity"`
	Message    string    `json:"message"`
	Refs       []string  `json:"refs"`
}

type AcceptanceReport struct {
	Summary struct {
		Total    int  `json:"total"`
		Errors   int  `json:"errors"`
		Warnings int  `json:"warnings"`
		Pass     bool `json:"pass"`
	} `json:"summary"`
	Findings []Diagnostic `json:"findings,omitempty"`
}

// Context carries everything a check function can look at: the decoded
// records of one capture plus the source name used in diagnostics.
type Context struct {
	Source  string
	Records []*teleinfo.Record

	// InputFile, when set, is decoded lazily by EnsureRecords.
	InputFile string
}

// EnsureRecords decodes InputFile into Records when they have not been
// supplied directly. Frames that fail to parse are skipped; the stream
// checks report on what did decode.
func (ctx *Context) EnsureRecords() error {
	if ctx == nil {
		return errors.New("nil context")
	}
	if len(ctx.Records) > 0 || ctx.InputFile == "" {
		return nil
	}
	f, err := os.Open(ctx.InputFile)
	if err != nil {
		return err
	}
	defer f.Close()
	if ctx.Source == "" {
		ctx.Source = ctx.InputFile
	}
	var leftover []byte
	for {
		rest, rec, err := teleinfo.Decode(f, leftover)
		leftover = rest
		if rec != nil {
			ctx.Records = append(ctx.Records, rec)
		}
		if err != nil {
			if errors.Is(err, teleinfo.ErrParse) {
				continue
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

// CheckFunc evaluates one rule against a context. It may emit any number of
// diagnostics; none means the rule passed.
type CheckFunc func(ctx *Context, rule Rule) ([]Diagnostic, error)

type Engine struct {
	rulePack    RulePack
	registry    map[string]CheckFunc
	diagnostics []Diagnostic
}

func NewEngine(rp RulePack) *Engine {
	return &Engine{
		rulePack: rp,
		registry: make(map[string]CheckFunc),
	}
}

func (e *Engine) Register(name string, f CheckFunc) {
	e.registry[name] = f
}

func (e *Engine) Eval(ctx *Context) ([]Diagnostic, error) {
	if ctx == nil {
		return nil, errors.New("nil context")
	}
	if err := ctx.EnsureRecords(); err != nil {
		return nil, err
	}
	var diags []Diagnostic
	for _, r := range e.rulePack.Rules {
		if r.CheckFunc == "" {
			continue
		}
		fn, ok := e.registry[r.CheckFunc]
		if !ok {
			diags = append(diags, Diagnostic{
				Ts: time.Now(), Source: ctx.Source, RuleId: r.RuleId, Severity: WARN,
				Message: "no function for rule", Refs: r.Refs,
			})
			continue
		}
		ds, err := fn(ctx, r)
		if err != nil {
			diags = append(diags, Diagnostic{
				Ts: time.Now(), Source: ctx.Source, RuleId: r.RuleId, Severity: ERROR,
				Message: r.Message + " (" + err.Error() + ")", Refs: r.Refs,
			})
			continue
		}
		diags = append(diags, ds...)
	}
	e.diagnostics = diags
	return diags, nil
}

func (e *Engine) Diagnostics() []Diagnostic {
	return e.diagnostics
}

func (e *Engine) WriteDiagnosticsNDJSON(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	defer w.Flush()
	for _, d := range e.diagnostics {
		b, _ := json.Marshal(d)
		w.Write(b)
		w.WriteString("\n")
	}
	return nil
}

func (e *Engine) MakeAcceptance() AcceptanceReport {
	var rep AcceptanceReport
	var errs, warns int
	for _, d := range e.diagnostics {
		switch d.Severity {
		case ERROR:
			errs++
		case WARN:
			warns++
		}
	}
	rep.Summary.Total = len(e.diagnostics)
	rep.Summary.Errors = errs
	rep.Summary.Warnings = warns
	rep.Summary.Pass = errs == 0
	rep.Findings = e.diagnostics
	return rep
}

func LoadRulePack(path string) (RulePack, error) {
	var rp RulePack
	b, err := os.ReadFile(path)
	if err != nil {
		return rp, err
	}
	err = json.Unmarshal(b, &rp)
	return rp, err
}
