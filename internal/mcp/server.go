// Package mcp exposes the task and workflow services as MCP tools so
// desk-side assistants can query and drive the same engine the portal uses.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/Btuvia/MZ-sub001/internal/repository"
	"github.com/Btuvia/MZ-sub001/internal/services"
	"github.com/Btuvia/MZ-sub001/pkg/models"
)

type Server struct {
	mcpServer *server.MCPServer
	tasks     repository.TaskStore
	engine    *services.Engine
}

func NewServer(tasks repository.TaskStore, engine *services.Engine) *Server {
	s := &Server{
		mcpServer: server.NewMCPServer(
			"Agency Task Engine",
			"1.0.0",
			server.WithToolCapabilities(true),
		),
		tasks:  tasks,
		engine: engine,
	}

	s.registerTools()
	return s
}

func (s *Server) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool(
			"list_tasks",
			mcp.WithDescription("List tasks matching optional filters"),
			mcp.WithString("status", mcp.Description("Task status, or 'all'")),
			mcp.WithString("assigned_to", mcp.Description("Assigned user id")),
			mcp.WithString("q", mcp.Description("Free-text search over title, description, client name")),
		),
		s.handleListTasks,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"complete_task",
			mcp.WithDescription("Mark a task completed, advancing its workflow if it belongs to one"),
			mcp.WithString("id", mcp.Required(), mcp.Description("The ID of the task")),
		),
		s.handleCompleteTask,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"start_workflow",
			mcp.WithDescription("Start a workflow instance for a subject/client context"),
			mcp.WithString("workflow_id", mcp.Required(), mcp.Description("The workflow definition ID")),
			mcp.WithString("subject_id", mcp.Required(), mcp.Description("The subject the instance is for")),
			mcp.WithString("client_id", mcp.Description("Optional client reference")),
		),
		s.handleStartWorkflow,
	)
}

func (s *Server) handleListTasks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("Invalid arguments type"), nil
	}

	var filter services.TaskFilter
	filter.Status, _ = args["status"].(string)
	filter.AssignedTo, _ = args["assigned_to"].(string)
	filter.SearchTerm, _ = args["q"].(string)

	tasks, err := s.tasks.List(ctx, repository.TaskFilterHints{})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list tasks: %v", err)), nil
	}

	jsonBytes, _ := json.Marshal(services.FilterTasks(tasks, filter))
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleCompleteTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("Invalid arguments type"), nil
	}

	id, ok := args["id"].(string)
	if !ok || id == "" {
		return mcp.NewToolResultError("Missing required parameter: id"), nil
	}

	task, err := s.tasks.Get(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to load task: %v", err)), nil
	}
	if task.Status.Terminal() {
		return mcp.NewToolResultError(fmt.Sprintf("Task %s is already %s", id, task.Status)), nil
	}

	now := time.Now()
	if err := s.tasks.UpdateStatus(ctx, id, models.TaskStatusCompleted, now); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to complete task: %v", err)), nil
	}
	task.Status = models.TaskStatusCompleted
	task.UpdatedAt = now

	result := map[string]interface{}{"task": task}
	if task.IsWorkflowTask() {
		created, obligations, err := s.engine.OnTaskCompleted(ctx, task, now)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Task completed but workflow advance failed: %v", err)), nil
		}
		result["created"] = created
		result["obligations"] = obligations
	}

	jsonBytes, _ := json.Marshal(result)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleStartWorkflow(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("Invalid arguments type"), nil
	}

	workflowID, ok := args["workflow_id"].(string)
	if !ok || workflowID == "" {
		return mcp.NewToolResultError("Missing required parameter: workflow_id"), nil
	}
	subjectID, ok := args["subject_id"].(string)
	if !ok || subjectID == "" {
		return mcp.NewToolResultError("Missing required parameter: subject_id"), nil
	}

	ictx := services.InstanceContext{SubjectID: subjectID}
	if clientID, ok := args["client_id"].(string); ok && clientID != "" {
		ictx.ClientID = &clientID
	}

	inst, created, err := s.engine.Instantiate(ctx, workflowID, ictx, time.Now())
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to start workflow: %v", err)), nil
	}

	jsonBytes, _ := json.Marshal(map[string]interface{}{"instance": inst, "created": created})
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func MountHTTPHandlers(mux *http.ServeMux, mcpServer *server.MCPServer) {
	// Use SSE server for /mcp/sse and /mcp/message endpoints
	sseServer := server.NewSSEServer(mcpServer, server.WithStaticBasePath("/mcp"))

	mux.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		// Direct POST for tool calls
		if r.Method == http.MethodPost {
			sseServer.ServeHTTP(w, r)
			return
		}
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	})

	// SSE endpoints
	mux.HandleFunc("/mcp/sse", sseServer.ServeHTTP)
	mux.HandleFunc("/mcp/message", sseServer.ServeHTTP)
}
