package midi

// FindPort は名前が target と完全一致する最初のポートの位置を返す。
// 大文字小文字を区別し、前後空白のトリムや部分一致は行わない。
func FindPort[P interface{ String() string }](ports []P, target string) (int, bool) {
	for i, p := range ports {
		if p.String() == target {
			return i, true
		}
	}
	return -1, false
}
