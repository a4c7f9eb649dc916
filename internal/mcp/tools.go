package mcp

import "github.com/mark3labs/mcp-go/mcp"

// askDatasetTool defines the ask_dataset MCP tool.
var askDatasetTool = mcp.NewTool("ask_dataset",
	mcp.WithDescription("Ask a natural language question about the indexed CSV datasets. Statistical questions are answered with exact computations; open questions are answered from retrieved dataset context."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Natural language question, in Portuguese or English"),
	),
	mcp.WithString("session_id",
		mcp.Description("Session identifier to continue an existing conversation. A new session is created when omitted."),
	),
)

// ingestCSVTool defines the ingest_csv MCP tool.
var ingestCSVTool = mcp.NewTool("ingest_csv",
	mcp.WithDescription("Ingest a CSV file into the vector index: clean, chunk, embed and store it so it can be queried."),
	mcp.WithString("path",
		mcp.Required(),
		mcp.Description("Path to the CSV file on disk"),
	),
)

// datasetOverviewTool defines the dataset_overview MCP tool.
var datasetOverviewTool = mcp.NewTool("dataset_overview",
	mcp.WithDescription("Return the stored overview summaries of indexed datasets, including row counts and column descriptions."),
	mcp.WithString("dataset",
		mcp.Description("Restrict the overview to a single dataset source name"),
	),
)
