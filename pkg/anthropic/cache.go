package anthropic

// BuildCachedSystemBlocks constructs system content blocks with a cache
// breakpoint set to a 1-hour TTL. The critic reuses the same system
// instruction for every restaurant in a run, so later calls hit the
// warm cache.
func BuildCachedSystemBlocks(text string) []SystemBlock {
	return []SystemBlock{
		{
			Text: text,
			CacheControl: &CacheControl{
				TTL: "1h",
			},
		},
	}
}
