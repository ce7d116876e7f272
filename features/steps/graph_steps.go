package steps

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"approval-flow/activities"
	"approval-flow/shared"
	"approval-flow/storage"
	"approval-flow/workflow"

	"github.com/cucumber/godog"
	"go.temporal.io/sdk/testsuite"
	"go.uber.org/zap"
)

// GraphTestContext holds the graph and the outcome of the last step of a scenario
type GraphTestContext struct {
	logger *zap.Logger

	nodes []shared.Node
	edges []shared.Edge

	nearest    string
	allNearest []string
	findings   []shared.ValidationError
	connection workflow.ConnectionResult
	history    workflow.HistoryState
	pasted     workflow.Selection

	store         *storage.MemoryStore
	publishResult workflow.PublishResult
	publishErr    error
}

// NewGraphTestContext creates a new context for a scenario.
func NewGraphTestContext() *GraphTestContext {
	config := zap.NewDevelopmentConfig()
	config.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	logger, _ := config.Build()
	return &GraphTestContext{logger: logger}
}

// RegisterSteps connects Gherkin steps to Go functions.
func (gtc *GraphTestContext) RegisterSteps(ctx *godog.ScenarioContext) {
	ctx.Step(`^a graph with nodes:$`, gtc.aGraphWithNodes)
	ctx.Step(`^the sample loan workflow$`, gtc.theSampleLoanWorkflow)
	ctx.Step(`^the edges:$`, gtc.theEdges)
	ctx.Step(`^I look for the nearest previous checkpoint of "([^"]*)"$`, gtc.iLookForTheNearestPreviousCheckpointOf)
	ctx.Step(`^I look for all nearest previous checkpoints of "([^"]*)"$`, gtc.iLookForAllNearestPreviousCheckpointsOf)
	ctx.Step(`^the nearest checkpoint should be "([^"]*)"$`, gtc.theNearestCheckpointShouldBe)
	ctx.Step(`^the nearest checkpoints should be "([^"]*)"$`, gtc.theNearestCheckpointsShouldBe)
	ctx.Step(`^I validate the workflow$`, gtc.iValidateTheWorkflow)
	ctx.Step(`^the validation should report (\d+) errors?$`, gtc.theValidationShouldReportErrors)
	ctx.Step(`^the validation should report (\d+) warnings?$`, gtc.theValidationShouldReportWarnings)
	ctx.Step(`^exactly one error should contain "([^"]*)" and "([^"]*)"$`, gtc.exactlyOneErrorShouldContainAnd)
	ctx.Step(`^node "([^"]*)" should not be able to have outgoing connections$`, gtc.nodeShouldNotBeAbleToHaveOutgoingConnections)
	ctx.Step(`^I try to connect "([^"]*)" to "([^"]*)" from port "([^"]*)"$`, gtc.iTryToConnectFromPort)
	ctx.Step(`^the connection should be rejected with a reason containing "([^"]*)"$`, gtc.theConnectionShouldBeRejectedWithAReasonContaining)
	ctx.Step(`^the connection should be allowed$`, gtc.theConnectionShouldBeAllowed)
	ctx.Step(`^I record (\d+) history snapshots$`, gtc.iRecordHistorySnapshots)
	ctx.Step(`^the history should hold (\d+) snapshots with index (\d+)$`, gtc.theHistoryShouldHoldSnapshotsWithIndex)
	ctx.Step(`^I copy and paste the nodes "([^"]*)"$`, gtc.iCopyAndPasteTheNodes)
	ctx.Step(`^the pasted graph should have (\d+) nodes and (\d+) edges with new ids$`, gtc.thePastedGraphShouldHaveNodesAndEdgesWithNewIDs)
	ctx.Step(`^the pasted node "([^"]*)" should fail with "([^"]*)"$`, gtc.thePastedNodeShouldFailWith)
	ctx.Step(`^I publish the workflow as "([^"]*)"$`, gtc.iPublishTheWorkflowAs)
	ctx.Step(`^the workflow should be published$`, gtc.theWorkflowShouldBePublished)
	ctx.Step(`^the workflow should not be published$`, gtc.theWorkflowShouldNotBePublished)
	ctx.Step(`^the store should contain "([^"]*)"$`, gtc.theStoreShouldContain)

	ctx.After(func(ctx context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		_ = gtc.logger.Sync()
		return ctx, nil
	})
}

// tableRows turns a Gherkin table into one map per row keyed by the header cells
func tableRows(table *godog.Table) ([]map[string]string, error) {
	if table == nil || len(table.Rows) == 0 {
		return nil, fmt.Errorf("expected a table with a header row")
	}
	header := table.Rows[0].Cells
	rows := make([]map[string]string, 0, len(table.Rows)-1)
	for _, row := range table.Rows[1:] {
		values := make(map[string]string, len(header))
		for i, cell := range row.Cells {
			values[header[i].Value] = strings.TrimSpace(cell.Value)
		}
		rows = append(rows, values)
	}
	return rows, nil
}

func buildNode(row map[string]string) (shared.Node, error) {
	nodeType := shared.NodeType(row["type"])
	if !nodeType.IsValid() {
		return shared.Node{}, fmt.Errorf("unknown node type %q", row["type"])
	}
	node := shared.Node{
		ID:     row["id"],
		Type:   nodeType,
		Title:  row["id"],
		Config: shared.NewNodeConfig(nodeType),
	}

	switch nodeType {
	case shared.NodeTypeCheckpoint:
		node.CheckpointType = shared.CheckpointTypeNormal
		if row["checkpointType"] != "" {
			node.CheckpointType = shared.CheckpointType(row["checkpointType"])
		}
	case shared.NodeTypeForm:
		node.Roles = []shared.Role{shared.RoleAdvisor}
		node.Config = &shared.FormConfig{FormID: "form-" + node.ID}
	case shared.NodeTypeDecision:
		node.Config = &shared.DecisionConfig{Condition: "score > 600"}
	case shared.NodeTypeAPI:
		cfg := &shared.APIConfig{URL: "https://api.example.com/" + node.ID, Method: "POST"}
		if action := row["onFailure"]; action != "" {
			cfg.FailureHandling = &shared.FailureHandling{OnFailure: shared.FailureAction(action)}
		}
		node.Config = cfg
	case shared.NodeTypeReject:
		allow, _ := strconv.ParseBool(row["allowRetry"])
		node.Config = &shared.RejectConfig{AllowRetry: allow}
	}
	return node, nil
}

func (gtc *GraphTestContext) aGraphWithNodes(table *godog.Table) error {
	rows, err := tableRows(table)
	if err != nil {
		return err
	}
	gtc.nodes = gtc.nodes[:0]
	for _, row := range rows {
		node, err := buildNode(row)
		if err != nil {
			return err
		}
		gtc.nodes = append(gtc.nodes, node)
	}
	return nil
}

func (gtc *GraphTestContext) theSampleLoanWorkflow() error {
	doc := workflow.GetSampleWorkflowDocument()
	gtc.nodes, gtc.edges = doc.Nodes, doc.Edges
	return nil
}

func (gtc *GraphTestContext) theEdges(table *godog.Table) error {
	rows, err := tableRows(table)
	if err != nil {
		return err
	}
	for i, row := range rows {
		kind := shared.EdgeKindNormal
		if row["kind"] != "" {
			kind = shared.EdgeKind(row["kind"])
		}
		gtc.edges = append(gtc.edges, shared.Edge{
			ID:       fmt.Sprintf("e%d", i+1),
			From:     row["from"],
			To:       row["to"],
			Kind:     kind,
			FromPort: shared.Port(row["port"]),
		})
	}
	return nil
}

func (gtc *GraphTestContext) iLookForTheNearestPreviousCheckpointOf(nodeID string) error {
	gtc.nearest = workflow.FindNearestPreviousCheckpoint(nodeID, gtc.nodes, gtc.edges)
	return nil
}

func (gtc *GraphTestContext) iLookForAllNearestPreviousCheckpointsOf(nodeID string) error {
	gtc.allNearest = workflow.FindAllNearestPreviousCheckpoints(nodeID, gtc.nodes, gtc.edges)
	return nil
}

func (gtc *GraphTestContext) theNearestCheckpointShouldBe(expected string) error {
	if gtc.nearest != expected {
		return fmt.Errorf("expected nearest checkpoint %q, got %q", expected, gtc.nearest)
	}
	return nil
}

func (gtc *GraphTestContext) theNearestCheckpointsShouldBe(expected string) error {
	want := strings.Split(expected, ",")
	for i := range want {
		want[i] = strings.TrimSpace(want[i])
	}
	got := append([]string(nil), gtc.allNearest...)
	sort.Strings(want)
	sort.Strings(got)
	if strings.Join(want, ",") != strings.Join(got, ",") {
		return fmt.Errorf("expected nearest checkpoints %v, got %v", want, got)
	}
	return nil
}

func (gtc *GraphTestContext) iValidateTheWorkflow() error {
	validator := workflow.NewValidator(gtc.logger)
	gtc.findings = validator.Validate(gtc.nodes, gtc.edges).Findings
	return nil
}

func (gtc *GraphTestContext) countFindings(severity shared.Severity, substrings ...string) int {
	count := 0
	for _, f := range gtc.findings {
		if f.Severity != severity {
			continue
		}
		matched := true
		for _, s := range substrings {
			if !strings.Contains(f.Message, s) {
				matched = false
			}
		}
		if matched {
			count++
		}
	}
	return count
}

func (gtc *GraphTestContext) theValidationShouldReportErrors(expected int) error {
	if got := gtc.countFindings(shared.SeverityError); got != expected {
		return fmt.Errorf("expected %d errors, got %d: %v", expected, got, gtc.findings)
	}
	return nil
}

func (gtc *GraphTestContext) theValidationShouldReportWarnings(expected int) error {
	if got := gtc.countFindings(shared.SeverityWarning); got != expected {
		return fmt.Errorf("expected %d warnings, got %d: %v", expected, got, gtc.findings)
	}
	return nil
}

func (gtc *GraphTestContext) exactlyOneErrorShouldContainAnd(first, second string) error {
	if got := gtc.countFindings(shared.SeverityError, first, second); got != 1 {
		return fmt.Errorf("expected exactly one error containing %q and %q, got %d: %v", first, second, got, gtc.findings)
	}
	return nil
}

func (gtc *GraphTestContext) findNode(id string) (shared.Node, error) {
	for _, n := range gtc.nodes {
		if n.ID == id {
			return n, nil
		}
	}
	return shared.Node{}, fmt.Errorf("node %q is not part of the graph", id)
}

func (gtc *GraphTestContext) nodeShouldNotBeAbleToHaveOutgoingConnections(nodeID string) error {
	node, err := gtc.findNode(nodeID)
	if err != nil {
		return err
	}
	if workflow.CanNodeHaveOutgoingConnections(node) {
		return fmt.Errorf("node %q can have outgoing connections", nodeID)
	}
	return nil
}

func (gtc *GraphTestContext) iTryToConnectFromPort(sourceID, targetID, port string) error {
	source, err := gtc.findNode(sourceID)
	if err != nil {
		return err
	}
	target, err := gtc.findNode(targetID)
	if err != nil {
		return err
	}
	gtc.connection = workflow.CanCreateConnection(source, target, gtc.edges, shared.Port(port))
	return nil
}

func (gtc *GraphTestContext) theConnectionShouldBeRejectedWithAReasonContaining(reason string) error {
	if gtc.connection.Allowed {
		return fmt.Errorf("expected the connection to be rejected")
	}
	if !strings.Contains(gtc.connection.Reason, reason) {
		return fmt.Errorf("rejection reason %q does not contain %q", gtc.connection.Reason, reason)
	}
	return nil
}

func (gtc *GraphTestContext) theConnectionShouldBeAllowed() error {
	if !gtc.connection.Allowed {
		return fmt.Errorf("expected the connection to be allowed, got %q", gtc.connection.Reason)
	}
	return nil
}

func (gtc *GraphTestContext) iRecordHistorySnapshots(count int) error {
	gtc.history = workflow.InitializeHistory(gtc.nodes, gtc.edges)
	for i := 0; i < count; i++ {
		node := shared.Node{ID: fmt.Sprintf("n%d", i), Type: shared.NodeTypeEnd}
		gtc.history = workflow.PushHistoryState(gtc.history, append(gtc.nodes, node), gtc.edges)
	}
	return nil
}

func (gtc *GraphTestContext) theHistoryShouldHoldSnapshotsWithIndex(size, index int) error {
	if len(gtc.history.History) != size {
		return fmt.Errorf("expected %d snapshots, got %d", size, len(gtc.history.History))
	}
	if gtc.history.HistoryIndex != index {
		return fmt.Errorf("expected history index %d, got %d", index, gtc.history.HistoryIndex)
	}
	return nil
}

func (gtc *GraphTestContext) iCopyAndPasteTheNodes(ids string) error {
	selected := strings.Split(ids, ",")
	for i := range selected {
		selected[i] = strings.TrimSpace(selected[i])
	}
	selection := workflow.SerializeSelection(selected, nil, gtc.nodes, gtc.edges)
	if selection == nil {
		return fmt.Errorf("nothing was copied from %v", selected)
	}
	gtc.pasted = workflow.DeserializeSelection(*selection, gtc.nodes, nil)
	return nil
}

func (gtc *GraphTestContext) thePastedGraphShouldHaveNodesAndEdgesWithNewIDs(nodeCount, edgeCount int) error {
	if len(gtc.pasted.Nodes) != nodeCount || len(gtc.pasted.Edges) != edgeCount {
		return fmt.Errorf("expected %d nodes and %d edges, got %d and %d",
			nodeCount, edgeCount, len(gtc.pasted.Nodes), len(gtc.pasted.Edges))
	}
	for _, n := range gtc.pasted.Nodes {
		if _, err := gtc.findNode(n.ID); err == nil {
			return fmt.Errorf("pasted node reuses id %q", n.ID)
		}
	}
	return nil
}

func (gtc *GraphTestContext) thePastedNodeShouldFailWith(title, action string) error {
	for _, n := range gtc.pasted.Nodes {
		if n.Title != title {
			continue
		}
		if got := n.APIConfig().OnFailure(); got != shared.FailureAction(action) {
			return fmt.Errorf("pasted node %q fails with %q, expected %q", title, got, action)
		}
		return nil
	}
	return fmt.Errorf("no pasted node titled %q", title)
}

func (gtc *GraphTestContext) iPublishTheWorkflowAs(documentID string) error {
	cache, err := workflow.NewValidationCache(workflow.NewValidator(gtc.logger), 0, 0, gtc.logger)
	if err != nil {
		return err
	}
	defer cache.Close()
	gtc.store = storage.NewMemoryStore()

	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(workflow.PublishWorkflow)
	env.RegisterActivity(&activities.PublishActivities{Store: gtc.store, Cache: cache})

	doc := workflow.GetSampleWorkflowDocument()
	doc.Nodes, doc.Edges = gtc.nodes, gtc.edges
	env.ExecuteWorkflow(workflow.PublishWorkflow, workflow.PublishInput{DocumentID: documentID, Document: doc})

	if !env.IsWorkflowCompleted() {
		return fmt.Errorf("publish workflow did not complete")
	}
	gtc.publishErr = env.GetWorkflowError()
	if gtc.publishErr == nil {
		gtc.publishErr = env.GetWorkflowResult(&gtc.publishResult)
	}
	return nil
}

func (gtc *GraphTestContext) theWorkflowShouldBePublished() error {
	if gtc.publishErr != nil {
		return fmt.Errorf("publish failed: %w", gtc.publishErr)
	}
	if !gtc.publishResult.Published {
		return fmt.Errorf("document was not published: %v", gtc.publishResult.Report.Findings)
	}
	return nil
}

func (gtc *GraphTestContext) theWorkflowShouldNotBePublished() error {
	if gtc.publishErr != nil {
		return fmt.Errorf("publish failed: %w", gtc.publishErr)
	}
	if gtc.publishResult.Published {
		return fmt.Errorf("document was published despite %d errors", gtc.publishResult.Report.ErrorCount)
	}
	return nil
}

func (gtc *GraphTestContext) theStoreShouldContain(documentID string) error {
	summaries, err := gtc.store.List(context.Background())
	if err != nil {
		return err
	}
	for _, s := range summaries {
		if s.ID == documentID {
			return nil
		}
	}
	return fmt.Errorf("document %q was not stored", documentID)
}
