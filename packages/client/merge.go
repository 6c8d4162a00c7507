package client

// Merge combines a client's defaults with a per-call override into a new
// effective configuration. Neither input is modified.
//
// Scalar fields, transform lists, the adapter and the cancel token are taken
// from override when set there. Headers, Params and Extra are deep merged with
// override winning on key collisions. The result always has a Headers map.
func Merge(defaults, override *Config) *Config {
	result := defaults.Clone()
	if override == nil {
		if result.Headers == nil {
			result.Headers = Headers{}
		}
		return result
	}

	if override.URL != "" {
		result.URL = override.URL
	}
	if override.BaseURL != "" {
		result.BaseURL = override.BaseURL
	}
	if override.Method != "" {
		result.Method = override.Method
	}
	if override.Data != nil {
		result.Data = override.Data
	}
	if override.ParamsSerializer != nil {
		result.ParamsSerializer = override.ParamsSerializer
	}
	if override.TransformRequest != nil {
		result.TransformRequest = append([]Transformer(nil), override.TransformRequest...)
	}
	if override.TransformResponse != nil {
		result.TransformResponse = append([]Transformer(nil), override.TransformResponse...)
	}
	if override.Adapter != nil {
		result.Adapter = override.Adapter
	}
	if override.CancelToken != nil {
		result.CancelToken = override.CancelToken
	}
	if override.Timeout > 0 {
		result.Timeout = override.Timeout
	}
	if override.ValidateStatus != nil {
		result.ValidateStatus = override.ValidateStatus
	}
	if override.Auth != nil {
		auth := *override.Auth
		result.Auth = &auth
	}

	result.Headers = mergeHeaders(result.Headers, override.Headers)
	if len(override.Params) > 0 {
		if result.Params == nil {
			result.Params = make(map[string]string, len(override.Params))
		}
		for k, v := range override.Params {
			result.Params[k] = v
		}
	}
	if len(override.Extra) > 0 {
		result.Extra = mergeAny(result.Extra, override.Extra)
	}

	return result
}

func mergeHeaders(base, other Headers) Headers {
	if base == nil {
		base = Headers{}
	}
	for _, k := range sortedKeys(other) {
		v := other[k]
		otherSec, otherNested := asSection(v)
		if !otherNested {
			base.put(k, v)
			continue
		}
		if baseSec, ok := asSection(base[k]); ok {
			base[k] = mergeHeaders(baseSec.Clone(), otherSec)
		} else {
			base[k] = otherSec.Clone()
		}
	}
	return base
}

func mergeAny(base, other map[string]any) map[string]any {
	if base == nil {
		base = make(map[string]any, len(other))
	}
	for k, v := range other {
		otherMap, otherNested := v.(map[string]any)
		baseMap, baseNested := base[k].(map[string]any)
		if otherNested && baseNested {
			base[k] = mergeAny(baseMap, otherMap)
			continue
		}
		if otherNested {
			v = cloneAny(otherMap)
		}
		base[k] = v
	}
	return base
}
