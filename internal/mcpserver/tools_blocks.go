package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerBlockTools() {
	s.mcp.AddTool(mcp.NewTool("get_page_blocks",
		mcp.WithDescription("All blocks of a page as a tree in document order. Each block carries "+
			"its uuid, content, properties, and parent reference."),
		mcp.WithString("page_name", mcp.Required(), mcp.Description("Page to read blocks from")),
	), s.getPageBlocks)

	s.mcp.AddTool(mcp.NewTool("get_block",
		mcp.WithDescription("Fetch a single block by its UUID."),
		mcp.WithString("block_id", mcp.Required(), mcp.Description("Block UUID")),
	), s.getBlock)

	s.mcp.AddTool(mcp.NewTool("get_block_properties",
		mcp.WithDescription("The property mapping of a block."),
		mcp.WithString("block_id", mcp.Required(), mcp.Description("Block UUID")),
	), s.getBlockProperties)

	s.mcp.AddTool(mcp.NewTool("create_block",
		mcp.WithDescription("Append a new block to the end of a page. Use [[Page Name]] in the "+
			"content to link other pages."),
		mcp.WithString("page_name", mcp.Required(), mcp.Description("Page to append to")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Block content")),
		mcp.WithObject("properties", mcp.Description("Optional block properties")),
	), s.createBlock)

	s.mcp.AddTool(mcp.NewTool("insert_block",
		mcp.WithDescription("Insert a new block as a child of an existing block, at the start of "+
			"the children when before=true, otherwise at the end."),
		mcp.WithString("parent_block_id", mcp.Required(), mcp.Description("Parent block UUID")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Block content")),
		mcp.WithObject("properties", mcp.Description("Optional block properties")),
		mcp.WithBoolean("before", mcp.DefaultBool(false), mcp.Description("Insert at the beginning of the children")),
	), s.insertBlock)

	s.mcp.AddTool(mcp.NewTool("update_block",
		mcp.WithDescription("Replace the content of an existing block."),
		mcp.WithString("block_id", mcp.Required(), mcp.Description("Block UUID")),
		mcp.WithString("content", mcp.Required(), mcp.Description("New content")),
	), s.updateBlock)

	s.mcp.AddTool(mcp.NewTool("move_block",
		mcp.WithDescription("Move a block (and its children) after the target block, or under it "+
			"when as_child=true."),
		mcp.WithString("block_id", mcp.Required(), mcp.Description("Block to move")),
		mcp.WithString("target_block_id", mcp.Required(), mcp.Description("Target block UUID")),
		mcp.WithBoolean("as_child", mcp.DefaultBool(false), mcp.Description("Make the block a child of the target")),
	), s.moveBlock)

	s.mcp.AddTool(mcp.NewTool("remove_block",
		mcp.WithDescription("Remove a block and all its children. Cannot be undone."),
		mcp.WithString("block_id", mcp.Required(), mcp.Description("Block to remove")),
	), s.removeBlock)

	s.mcp.AddTool(mcp.NewTool("search_blocks",
		mcp.WithDescription("Search blocks across the graph. Supports plain terms, "+
			"page:\"Page Name\" scoping, and [[Page Name]] reference queries."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query")),
	), s.searchBlocks)
}

func (s *Server) getPageBlocks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("page_name")
	if err != nil {
		return invalidResult(err.Error()), nil
	}
	blocks, err := s.API.GetPageBlocks(ctx, name)
	if err != nil {
		return errResult(err), nil
	}
	return okResult(blocks), nil
}

func (s *Server) getBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("block_id")
	if err != nil {
		return invalidResult(err.Error()), nil
	}
	block, err := s.API.GetBlock(ctx, id)
	if err != nil {
		return errResult(err), nil
	}
	return okResult(block), nil
}

func (s *Server) getBlockProperties(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("block_id")
	if err != nil {
		return invalidResult(err.Error()), nil
	}
	props, err := s.API.GetBlockProperties(ctx, id)
	if err != nil {
		return errResult(err), nil
	}
	return okResult(props), nil
}

func (s *Server) createBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("page_name")
	if err != nil {
		return invalidResult(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return invalidResult(err.Error()), nil
	}
	props, _ := req.GetArguments()["properties"].(map[string]any)

	block, err := s.API.CreateBlock(ctx, name, content, props)
	if err != nil {
		return errResult(err), nil
	}
	return okResult(block), nil
}

func (s *Server) insertBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	parentID, err := req.RequireString("parent_block_id")
	if err != nil {
		return invalidResult(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return invalidResult(err.Error()), nil
	}
	props, _ := req.GetArguments()["properties"].(map[string]any)
	before := req.GetBool("before", false)

	block, err := s.API.InsertBlock(ctx, parentID, content, props, before)
	if err != nil {
		return errResult(err), nil
	}
	return okResult(block), nil
}

func (s *Server) updateBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("block_id")
	if err != nil {
		return invalidResult(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return invalidResult(err.Error()), nil
	}
	block, err := s.API.UpdateBlock(ctx, id, content)
	if err != nil {
		return errResult(err), nil
	}
	return okResult(block), nil
}

func (s *Server) moveBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("block_id")
	if err != nil {
		return invalidResult(err.Error()), nil
	}
	targetID, err := req.RequireString("target_block_id")
	if err != nil {
		return invalidResult(err.Error()), nil
	}
	asChild := req.GetBool("as_child", false)

	if err := s.API.MoveBlock(ctx, id, targetID, asChild); err != nil {
		return errResult(err), nil
	}
	return okResult(map[string]string{"moved": id}), nil
}

func (s *Server) removeBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("block_id")
	if err != nil {
		return invalidResult(err.Error()), nil
	}
	if err := s.API.RemoveBlock(ctx, id); err != nil {
		return errResult(err), nil
	}
	return okResult(map[string]string{"removed": id}), nil
}

func (s *Server) searchBlocks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return invalidResult(err.Error()), nil
	}
	blocks, err := s.API.SearchBlocks(ctx, query)
	if err != nil {
		return errResult(err), nil
	}
	return okResult(blocks), nil
}
