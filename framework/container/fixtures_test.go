package container_test

import (
	"errors"
	"time"
)

// ── fixtures ──────────────────────────────────────────────────────────────────

type AInterface interface{ Name() string }
type BInterface interface{ Name() string }
type CInterface interface{ Name() string }
type DInterface interface{ Dependency() BInterface }
type EInterface interface{ Missing() }

type A struct{ n int }

func (*A) Name() string { return "A" }

// B needs an A, so everything built on B carries an A transitively.
type B struct {
	A AInterface
}

func (*B) Name() string { return "B" }

type C struct {
	A AInterface
	B BInterface
}

func (*C) Name() string { return "C" }

type D struct {
	B BInterface
}

func (d *D) Dependency() BInterface { return d.B }

// Left and Right depend on each other.
type Left struct{ Right *Right }
type Right struct{ Left *Left }

type Mailer struct {
	Host    string
	Port    int           `default:"587"`
	Timeout time.Duration `default:"5s"`
	Retries int           `inject:"retries,optional"`
	From    string        `inject:"-"`
}

type Newsletter struct {
	Mailer *Mailer
	Port   int `default:"80"`
}

type Reporter struct {
	Sink EInterface `inject:"sink,optional"`
}

type StrictReporter struct {
	Sink EInterface
}

type Service struct {
	A    AInterface
	Name string
}

var errBoom = errors.New("boom")

func NewService(a AInterface, name string) *Service {
	return &Service{A: a, Name: name}
}

func NewFailingService(AInterface) (*Service, error) {
	return nil, errBoom
}

func NewPanickingService() *Service {
	panic("constructor exploded")
}
