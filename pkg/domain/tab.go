package domain

import "fmt"

// Tab identifies the analysis panel shown for a view.
type Tab string

const (
	TabSource      Tab = "Source"
	TabCabs        Tab = "Cabs"
	TabAilAST      Tab = "Ail_AST"
	TabAil         Tab = "Ail"
	TabCore        Tab = "Core"
	TabExecution   Tab = "Execution"
	TabInteractive Tab = "Interactive"
	TabConsole     Tab = "Console"
	TabAsm         Tab = "Asm"
)

var knownTabs = map[Tab]bool{
	TabSource: true, TabCabs: true, TabAilAST: true, TabAil: true, TabCore: true,
	TabExecution: true, TabInteractive: true, TabConsole: true, TabAsm: true,
}

// ParseTab validates a tab identifier. The empty string is TabSource.
func ParseTab(s string) (Tab, error) {
	if s == "" {
		return TabSource, nil
	}
	if !knownTabs[Tab(s)] {
		return "", fmt.Errorf("%w: %q", ErrUnknownTab, s)
	}
	return Tab(s), nil
}

// IsIR reports whether the tab shows a representation derived from elaboration.
func (t Tab) IsIR() bool {
	switch t {
	case TabCabs, TabAilAST, TabAil, TabCore:
		return true
	}
	return false
}
