package workflow

import (
	"fmt"
	"sort"
	"strings"

	"approval-flow/shared"
)

type validationRule struct {
	name  string
	check func(p *validationPass) []shared.ValidationError
}

// validationRules is the rule catalog in reporting order
var validationRules = []validationRule{
	{name: "start-node", check: checkStartNode},
	{name: "required-roles", check: checkRequiredRoles},
	{name: "decision-branches", check: checkDecisionBranches},
	{name: "terminal-exists", check: checkTerminalExists},
	{name: "outgoing-presence", check: checkOutgoingPresence},
	{name: "reject-retry", check: checkRejectNodes},
	{name: "required-fields", check: checkRequiredFields},
	{name: "api-failure-handling", check: checkAPIFailureHandling},
	{name: "challenge-config", check: checkChallengeConfig},
	{name: "challenge-results", check: checkChallengeResults},
	{name: "stale-timeout", check: checkStaleTimeouts},
	{name: "dangling-edges", check: checkDanglingEdges},
	{name: "flag-changes", check: checkFlagChangeNodes},
}

// validationPass holds the indexes shared by all rules of one run
type validationPass struct {
	index    *graphIndex
	forward  AdjacencyMap
	backward AdjacencyMap
}

func newValidationPass(nodes []shared.Node, edges []shared.Edge) *validationPass {
	forward, backward := BuildAdjacency(edges)
	return &validationPass{
		index:    newGraphIndex(nodes, edges),
		forward:  forward,
		backward: backward,
	}
}

func (p *validationPass) nodes() []shared.Node {
	return p.index.nodes
}

func nodeError(n shared.Node, format string, args ...interface{}) shared.ValidationError {
	return shared.ValidationError{NodeID: n.ID, Message: fmt.Sprintf(format, args...), Severity: shared.SeverityError}
}

func nodeWarning(n shared.Node, format string, args ...interface{}) shared.ValidationError {
	return shared.ValidationError{NodeID: n.ID, Message: fmt.Sprintf(format, args...), Severity: shared.SeverityWarning}
}

func graphError(format string, args ...interface{}) shared.ValidationError {
	return shared.ValidationError{Message: fmt.Sprintf(format, args...), Severity: shared.SeverityError}
}

// label is how findings name a node
func label(n shared.Node) string {
	if strings.TrimSpace(n.Title) != "" {
		return n.Title
	}
	return n.ID
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func checkStartNode(p *validationPass) []shared.ValidationError {
	count := 0
	for _, n := range p.nodes() {
		if n.Type == shared.NodeTypeStart {
			count++
		}
	}
	switch {
	case count == 0:
		return []shared.ValidationError{graphError("El workflow debe tener un nodo de inicio")}
	case count > 1:
		return []shared.ValidationError{graphError("El workflow solo puede tener un nodo de inicio (se encontraron %d)", count)}
	}
	return nil
}

func checkRequiredRoles(p *validationPass) []shared.ValidationError {
	var out []shared.ValidationError
	for _, n := range p.nodes() {
		if (n.Type == shared.NodeTypeForm || n.Type == shared.NodeTypeChallenge) && len(n.Roles) == 0 {
			out = append(out, nodeError(n, "El nodo \"%s\" debe tener al menos un rol asignado", label(n)))
		}
	}
	return out
}

func checkDecisionBranches(p *validationPass) []shared.ValidationError {
	var out []shared.ValidationError
	for _, n := range p.nodes() {
		if n.Type == shared.NodeTypeDecision && len(p.index.outgoingEdges(n.ID)) < 2 {
			out = append(out, nodeError(n, "El nodo de decisión \"%s\" debe tener al menos dos conexiones salientes", label(n)))
		}
	}
	return out
}

func checkTerminalExists(p *validationPass) []shared.ValidationError {
	for _, n := range p.nodes() {
		if n.Type.IsTerminal() {
			return nil
		}
	}
	return []shared.ValidationError{graphError("El workflow debe tener al menos un nodo de fin o de rechazo")}
}

// checkOutgoingPresence skips challenges (covered by their result rule) and nodes whose
// configuration makes them terminal or returns control implicitly.
func checkOutgoingPresence(p *validationPass) []shared.ValidationError {
	var out []shared.ValidationError
	for _, n := range p.nodes() {
		switch n.Type {
		case shared.NodeTypeEnd, shared.NodeTypeReject, shared.NodeTypeChallenge:
			continue
		case shared.NodeTypeAPI:
			action := n.APIConfig().OnFailure()
			if action == shared.FailureActionStop || action == shared.FailureActionReturnToCheckpoint {
				continue
			}
		}
		if len(p.index.outgoingEdges(n.ID)) == 0 {
			out = append(out, nodeWarning(n, "El nodo \"%s\" no tiene conexiones salientes", label(n)))
		}
	}
	return out
}

func checkRejectNodes(p *validationPass) []shared.ValidationError {
	var out []shared.ValidationError
	for _, n := range p.nodes() {
		if n.Type != shared.NodeTypeReject {
			continue
		}
		cfg := n.RejectConfig()
		outgoing := p.index.outgoingEdges(n.ID)

		if cfg == nil || !cfg.AllowRetry {
			if len(outgoing) > 0 {
				out = append(out, nodeError(n, "El nodo de rechazo \"%s\" no permite reintentos y no puede tener conexiones salientes", label(n)))
			}
			continue
		}

		switch len(outgoing) {
		case 0:
			out = append(out, nodeError(n, "El nodo de rechazo \"%s\" permite reintentos y debe conectarse a un checkpoint", label(n)))
		case 1:
			target := outgoing[0].To
			nearest := p.index.nearestPreviousCheckpoint(n.ID)
			if nearest == "" || target != nearest || !p.index.isType(target, shared.NodeTypeCheckpoint) {
				out = append(out, nodeError(n, "El reintento del nodo de rechazo \"%s\" debe dirigirse al checkpoint previo más cercano", label(n)))
			}
		default:
			out = append(out, nodeError(n, "El nodo de rechazo \"%s\" solo puede tener una conexión de reintento", label(n)))
		}

		if cfg.MaxRetries != nil && *cfg.MaxRetries < 0 {
			out = append(out, nodeError(n, "El número máximo de reintentos del nodo de rechazo \"%s\" no puede ser negativo", label(n)))
		}
	}
	return out
}

func checkRequiredFields(p *validationPass) []shared.ValidationError {
	var out []shared.ValidationError
	for _, n := range p.nodes() {
		var missing string
		switch n.Type {
		case shared.NodeTypeForm:
			if cfg := n.FormConfig(); cfg == nil || isBlank(cfg.FormID) {
				missing = "un formulario"
			}
		case shared.NodeTypeDecision:
			if cfg := n.DecisionConfig(); cfg == nil || isBlank(cfg.Condition) {
				missing = "una condición"
			}
		case shared.NodeTypeTransform:
			if cfg := n.TransformConfig(); cfg == nil || isBlank(cfg.Code) {
				missing = "código de transformación"
			}
		case shared.NodeTypeAPI:
			if cfg := n.APIConfig(); cfg == nil || isBlank(cfg.URL) {
				missing = "una URL"
			}
		case shared.NodeTypeMessage:
			if cfg := n.MessageConfig(); cfg == nil || isBlank(cfg.Template) {
				missing = "una plantilla"
			}
		}
		if missing != "" {
			out = append(out, nodeError(n, "El nodo \"%s\" requiere %s", label(n), missing))
		}
	}
	return out
}

func checkAPIFailureHandling(p *validationPass) []shared.ValidationError {
	var out []shared.ValidationError
	for _, n := range p.nodes() {
		if n.Type != shared.NodeTypeAPI {
			continue
		}
		cfg := n.APIConfig()
		if cfg == nil || cfg.FailureHandling == nil {
			continue
		}
		fh := cfg.FailureHandling

		if fh.MaxRetries < 0 {
			out = append(out, nodeError(n, "El número de reintentos del nodo API \"%s\" no puede ser negativo", label(n)))
		} else if fh.MaxRetries > shared.MaxAPIRetries {
			out = append(out, nodeError(n, "El nodo API \"%s\" no puede tener más de %d reintentos", label(n), shared.MaxAPIRetries))
		}

		if fh.OnFailure == shared.FailureActionReturnToCheckpoint {
			nearest := p.index.allNearestPreviousCheckpoints(n.ID)
			if len(nearest) == 0 {
				out = append(out, nodeError(n, "El nodo API \"%s\" vuelve a un checkpoint, pero no hay ningún checkpoint previo", label(n)))
			}
			if isBlank(fh.CheckpointID) {
				out = append(out, nodeError(n, "El nodo API \"%s\" debe tener un checkpoint de retorno asignado", label(n)))
			} else if len(nearest) > 0 && !containsString(nearest, fh.CheckpointID) {
				out = append(out, nodeWarning(n, "El checkpoint de retorno del nodo API \"%s\" no coincide con el checkpoint previo más cercano", label(n)))
			}
		}

		if fh.Timeout != 0 && (fh.Timeout < shared.MinAPITimeoutMs || fh.Timeout > shared.MaxAPITimeoutMs) {
			out = append(out, nodeWarning(n, "El timeout del nodo API \"%s\" debería estar entre %d y %d ms", label(n), shared.MinAPITimeoutMs, shared.MaxAPITimeoutMs))
		}

		switch fh.OnFailure {
		case shared.FailureActionStop:
			if len(p.index.outgoingEdges(n.ID)) > 0 {
				out = append(out, nodeError(n, "El nodo API \"%s\" con \"Detener Workflow\" no puede tener conexiones salientes", label(n)))
			}
		case shared.FailureActionReturnToCheckpoint:
			visible := 0
			for _, e := range p.index.outgoingEdges(n.ID) {
				if !e.IsRetry() {
					visible++
				}
			}
			if visible > 0 {
				out = append(out, nodeWarning(n, "El nodo API \"%s\" regresa al checkpoint de forma implícita; no debería tener conexiones salientes visibles", label(n)))
			}
		}
	}
	return out
}

func checkChallengeConfig(p *validationPass) []shared.ValidationError {
	var out []shared.ValidationError
	for _, n := range p.nodes() {
		if n.Type != shared.NodeTypeChallenge {
			continue
		}
		cfg := n.ChallengeConfig()
		if cfg == nil {
			cfg = &shared.ChallengeConfig{}
		}

		if cfg.ChallengeType == "" {
			out = append(out, nodeError(n, "El challenge \"%s\" requiere un tipo de challenge", label(n)))
		}
		if cfg.ChallengeTimeout.Value <= 0 {
			out = append(out, nodeError(n, "El tiempo límite del challenge \"%s\" debe ser mayor a 0", label(n)))
		}
		if (cfg.ChallengeType == shared.ChallengeTypeAcceptance || cfg.ChallengeType == shared.ChallengeTypeSignature) && cfg.DeliveryMethod == "" {
			out = append(out, nodeError(n, "El challenge \"%s\" requiere un método de envío", label(n)))
		}

		if r := cfg.Retries; r != nil {
			if r.MaxRetries < 1 || r.MaxRetries > shared.MaxChallengeRetries {
				out = append(out, nodeError(n, "Los reintentos del challenge \"%s\" deben ser un entero entre 1 y %d", label(n), shared.MaxChallengeRetries))
			}
			if len(r.Roles) == 0 {
				out = append(out, nodeError(n, "Los reintentos del challenge \"%s\" requieren al menos un rol", label(n)))
			} else {
				for _, role := range r.Roles {
					if isBlank(role) {
						out = append(out, nodeError(n, "Los roles de reintento del challenge \"%s\" no pueden estar vacíos", label(n)))
						break
					}
				}
			}
		}
	}
	return out
}

// checkChallengeResults pairs every configured result with an outgoing edge. An edge on
// the expected port is preferred; otherwise any unclaimed edge is taken, ported edges
// first.
func checkChallengeResults(p *validationPass) []shared.ValidationError {
	var out []shared.ValidationError
	for _, n := range p.nodes() {
		if n.Type != shared.NodeTypeChallenge {
			continue
		}
		edges := p.index.outgoingEdges(n.ID)
		sort.SliceStable(edges, func(i, j int) bool {
			return edges[i].FromPort != shared.PortNone && edges[j].FromPort == shared.PortNone
		})
		claimed := make([]bool, len(edges))

		for _, result := range n.ChallengeConfig().ConfiguredResults() {
			match := -1
			if port := result.ExpectedPort(); port != shared.PortNone {
				for i, e := range edges {
					if !claimed[i] && e.FromPort == port {
						match = i
						break
					}
				}
			}
			if match < 0 {
				for i := range edges {
					if !claimed[i] {
						match = i
						break
					}
				}
			}
			if match < 0 {
				out = append(out, nodeWarning(n, "El challenge \"%s\" no tiene conexión para el resultado \"%s\"", label(n), resultName(result)))
				continue
			}
			claimed[match] = true
		}
	}
	return out
}

func resultName(r shared.ChallengeResult) string {
	switch r {
	case shared.ChallengeResultAccepted:
		return "aceptado"
	case shared.ChallengeResultRejected:
		return "rechazado"
	case shared.ChallengeResultFailed:
		return "fallido"
	default:
		return string(r)
	}
}

func checkStaleTimeouts(p *validationPass) []shared.ValidationError {
	var out []shared.ValidationError
	reachesSafeEnd := func(id string) bool {
		n, ok := p.index.node(id)
		return ok && (n.IsSafeCheckpoint() || n.Type.IsTerminal())
	}
	reachedFromSafeStart := func(id string) bool {
		n, ok := p.index.node(id)
		return ok && (n.IsSafeCheckpoint() || n.Type == shared.NodeTypeStart)
	}

	for _, n := range p.nodes() {
		if n.StaleTimeout == nil || n.StaleTimeout.Value <= 0 {
			continue
		}
		if !CanReachNode(p.forward[n.ID], p.forward, reachesSafeEnd) {
			out = append(out, nodeWarning(n, "El nodo \"%s\" tiene tiempo de inactividad pero no alcanza un checkpoint seguro ni un nodo final", label(n)))
		}
		if !CanReachNode(p.backward[n.ID], p.backward, reachedFromSafeStart) {
			out = append(out, nodeWarning(n, "El nodo \"%s\" tiene tiempo de inactividad pero no es alcanzable desde un checkpoint seguro ni desde el inicio", label(n)))
		}
	}
	return out
}

func checkDanglingEdges(p *validationPass) []shared.ValidationError {
	var out []shared.ValidationError
	for _, e := range p.index.edges {
		if _, ok := p.index.byID[e.From]; !ok {
			out = append(out, graphError("La conexión \"%s\" parte de un nodo inexistente (%s)", e.ID, e.From))
		}
		if _, ok := p.index.byID[e.To]; !ok {
			out = append(out, graphError("La conexión \"%s\" apunta a un nodo inexistente (%s)", e.ID, e.To))
		}
	}
	return out
}

func checkFlagChangeNodes(p *validationPass) []shared.ValidationError {
	var out []shared.ValidationError
	for _, n := range p.nodes() {
		if n.Type != shared.NodeTypeFlagChange {
			continue
		}
		if cfg := n.FlagChangeConfig(); cfg == nil || len(cfg.FlagChanges) == 0 {
			out = append(out, nodeWarning(n, "El nodo \"%s\" no modifica ninguna bandera", label(n)))
		}
	}
	return out
}

// ValidateFlagChanges reports flag change entries that reference unknown flags or
// options of the given flag set.
func ValidateFlagChanges(nodes []shared.Node, flags []shared.Flag) []shared.ValidationError {
	out := make([]shared.ValidationError, 0)
	for _, n := range nodes {
		cfg := n.FlagChangeConfig()
		if n.Type != shared.NodeTypeFlagChange || cfg == nil {
			continue
		}
		for _, change := range cfg.FlagChanges {
			flag, ok := shared.FindFlag(flags, change.FlagID)
			if !ok {
				out = append(out, nodeError(n, "El nodo \"%s\" referencia una bandera inexistente (%s)", label(n), change.FlagID))
				continue
			}
			if !flag.HasOption(change.OptionID) {
				out = append(out, nodeError(n, "El nodo \"%s\" usa una opción inexistente de la bandera \"%s\"", label(n), flag.Name))
			}
		}
	}
	return out
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
