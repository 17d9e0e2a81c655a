package rates

import (
	"math"
	"strings"
	"sync"
	"testing"

	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/san-kum/plasmasim/internal/plasma"
	"github.com/san-kum/plasmasim/internal/ratetable"
)

func newEvaluator(t *testing.T, rows ...string) (*Evaluator, *test.Hook) {
	t.Helper()
	data := "Reaction,Rate_Constant\n" + strings.Join(rows, "\n") + "\n"
	tbl, err := ratetable.Load(strings.NewReader(data))
	if err != nil {
		t.Fatalf("load table: %v", err)
	}
	logger, hook := test.NewNullLogger()
	return NewEvaluator(tbl, logger), hook
}

func TestRate_NumericIgnoresState(t *testing.T) {
	g := NewWithT(t)
	ev, hook := newEvaluator(t, "A -> B,1.5e-11", "C -> D,42")

	for _, s := range []plasma.State{
		{Te: 0.5, Tg: 300},
		{Te: 10, Tg: 2000, Ev: 5000},
		{Te: 3, Tg: 77, Ne: 1e12},
	} {
		g.Expect(ev.Rate("A -> B", s)).To(Equal(1.5e-11))
		g.Expect(ev.Rate("  C -> D ", s)).To(Equal(42.0))
	}
	g.Expect(hook.AllEntries()).To(BeEmpty())
}

func TestRate_MissingReactionDegrades(t *testing.T) {
	g := NewWithT(t)
	ev, hook := newEvaluator(t, "A -> B,1")

	g.Expect(ev.Rate("X -> Y", plasma.State{Te: 2, Tg: 300})).To(Equal(0.0))

	entry := hook.LastEntry()
	g.Expect(entry).NotTo(BeNil())
	g.Expect(entry.Level).To(Equal(logrus.WarnLevel))
	g.Expect(entry.Data).To(HaveKeyWithValue("reaction", "X -> Y"))
	g.Expect(entry.Message).To(Equal("reaction not found"))
}

func TestRate_ReferenceTemperature(t *testing.T) {
	g := NewWithT(t)
	ev, hook := newEvaluator(t,
		"ratio,k = 4e-10*(T_g/300)^0.5",
		"arrhenius,k = 4e-10*(T_g/300)^0.5*exp(-16600/T_g)",
	)
	s := plasma.State{Te: 2, Tg: 300}

	g.Expect(ev.Rate("ratio", s)).To(BeNumerically("~", 4e-10, 1e-24))
	g.Expect(ev.Rate("arrhenius", s)).To(BeNumerically("~", 4e-10*math.Exp(-16600.0/300), 1e-40))
	g.Expect(hook.AllEntries()).To(BeEmpty())
}

func TestRate_Expressions(t *testing.T) {
	ev, hook := newEvaluator(t,
		"te,5e-9*exp(-5.6/T_e)",
		"ev,exp(-(16600-E_v)/T_g)",
		"pow,2^(3^2)",
		"negpow,-(T_e^2)",
		"negbase,(-T_e)^2",
		"negexp,2^-1",
		"funcpow,exp(0)^2 + 1",
		"pow2,T_e**2",
		"neg,-T_e + 10",
		"paren,(T_e+T_g)*(1/2)",
		"bracketed,[T_e] * 2",
		"decimal,.5e1 * 2",
	)
	s := plasma.State{Te: 2, Tg: 400, Ev: 600}

	tests := []struct {
		name string
		want float64
	}{
		{"te", 5e-9 * math.Exp(-2.8)},
		{"pow", 512},
		{"negpow", -4},
		{"negbase", 4},
		{"negexp", 0.5},
		{"funcpow", 2},
		{"ev", math.Exp(-16000.0 / 400)},
		{"pow2", 4},
		{"neg", 8},
		{"paren", 201},
		{"bracketed", 4},
		{"decimal", 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ev.Rate(tt.name, s)
			if math.Abs(got-tt.want) > 1e-12*math.Abs(tt.want) {
				t.Errorf("Rate(%s) = %g, want %g", tt.name, got, tt.want)
			}
		})
	}

	if len(hook.AllEntries()) != 0 {
		t.Errorf("unexpected warnings: %v", hook.AllEntries())
	}
}

func TestRate_SandboxRejects(t *testing.T) {
	rows := []string{
		"unknown,T_x * 2",
		"env,HOME",
		"compare,T_e > 1",
		"logic,T_e && T_g",
		"ternary,T_e ? 1 : 2",
		"modulo,T_g % 7",
		"bitwise,T_g & 3",
		"string,'abc'",
		"call,sqrt(T_e)",
		"not,!T_e",
		"syntax,(T_e * 2",
		"chained,2^3^2",
		"negated,-T_e^2",
		"negatedcall,-exp(T_e)^2",
	}
	ev, hook := newEvaluator(t, rows...)
	s := plasma.State{Te: 2, Tg: 300}

	for _, row := range rows {
		name := strings.SplitN(row, ",", 2)[0]
		t.Run(name, func(t *testing.T) {
			hook.Reset()
			if got := ev.Rate(name, s); got != 0 {
				t.Errorf("Rate(%s) = %g, want 0", name, got)
			}
			last := hook.LastEntry()
			if last == nil || last.Level != logrus.WarnLevel {
				t.Fatalf("expected a warning for %s", name)
			}
			if last.Data["reaction"] != name {
				t.Errorf("warning should name the reaction, got %v", last.Data)
			}
			if last.Data["expression"] == "" {
				t.Errorf("warning should carry the raw expression, got %v", last.Data)
			}
		})
	}

	if len(ev.Problems()) != len(rows) {
		t.Errorf("expected %d compile problems, got %d", len(rows), len(ev.Problems()))
	}
}

func TestRate_NonFiniteDegrades(t *testing.T) {
	g := NewWithT(t)
	ev, hook := newEvaluator(t, "overflow,exp(1000/T_e)", "nan,(T_e-T_e)/(T_e-T_e)")

	g.Expect(ev.Rate("overflow", plasma.State{Te: 0.1, Tg: 300})).To(Equal(0.0))
	g.Expect(hook.LastEntry().Message).To(Equal("cannot evaluate rate expression"))

	g.Expect(ev.Rate("nan", plasma.State{Te: 1, Tg: 300})).To(Equal(0.0))
	g.Expect(hook.AllEntries()).To(HaveLen(2))
}

func TestRate_CastFailureDegrades(t *testing.T) {
	g := NewWithT(t)
	ev, hook := newEvaluator(t, "huge,1e400")

	g.Expect(ev.Rate("huge", plasma.State{Te: 1, Tg: 300})).To(Equal(0.0))
	g.Expect(hook.LastEntry().Message).To(Equal("cannot cast rate to float"))
	g.Expect(hook.LastEntry().Data).To(HaveKeyWithValue("expression", "1e400"))
}

func TestRewrite(t *testing.T) {
	tests := []struct{ in, want string }{
		{"k = 4e-10*T_g^0.5", "0.0000000004*T_g**0.5"},
		{"1.5E3 + T_e", "1500 + T_e"},
		{"T_e == 1", "T_e == 1"},
		{"2^3", "2**3"},
	}
	for _, tt := range tests {
		if got := rewrite(tt.in); got != tt.want {
			t.Errorf("rewrite(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCached_MatchesEvaluator(t *testing.T) {
	g := NewWithT(t)
	ev, _ := newEvaluator(t, "te,5e-9*exp(-5.6/T_e)", "c,3")
	cached := NewCached(ev, 16)

	for _, te := range []float64{1, 2, 3, 2, 1} {
		s := plasma.State{Te: te, Tg: 300}
		g.Expect(cached.Rate("te", s)).To(Equal(ev.Rate("te", s)))
		g.Expect(cached.Rate(" c", s)).To(Equal(3.0))
	}

	hits, misses := cached.Stats()
	g.Expect(misses).To(Equal(6))
	g.Expect(hits).To(Equal(4))
}

func TestCached_Concurrent(t *testing.T) {
	ev, _ := newEvaluator(t, "te,5e-9*exp(-5.6/T_e)")
	cached := NewCached(ev, 8)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s := plasma.State{Te: float64(1 + i%4), Tg: 300}
			want := 5e-9 * math.Exp(-5.6/s.Te)
			if got := cached.Rate("te", s); math.Abs(got-want) > 1e-12*want {
				t.Errorf("Te=%g: got %g want %g", s.Te, got, want)
			}
		}(i)
	}
	wg.Wait()
}
