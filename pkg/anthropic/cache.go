package anthropic

// BuildCachedSystemBlocks wraps a system prompt in a single block with a 1h
// cache TTL. The cascade reuses the same system prompt across attempts and
// chunks, so caching it cuts input cost on every call after the first.
func BuildCachedSystemBlocks(prompt string) []SystemBlock {
	if prompt == "" {
		return nil
	}
	return []SystemBlock{
		{
			Text:         prompt,
			CacheControl: &CacheControl{TTL: "1h"},
		},
	}
}
