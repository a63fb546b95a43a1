package news

import "strings"

// DefaultCategory is used when a request names none.
const DefaultCategory = "technology"

const defaultQuery = "구독서비스 OR subscription service OR 구독경제"

// queries maps a category to a NewsAPI search expression mixing Korean and
// English service names.
var queries = map[string]string{
	"entertainment": "넷플릭스 OR Netflix OR 디즈니 OR Disney OR 디즈니플러스 OR 왓챠 OR 웨이브 OR OTT OR 스트리밍",
	"music":         "스포티파이 OR Spotify OR 애플뮤직 OR Apple Music OR 멜론 OR 음악스트리밍",
	"productivity":  "마이크로소프트 OR Microsoft OR 오피스 OR Office OR 노션 OR Notion OR 생산성도구",
	"cloud":         "구글드라이브 OR Google Drive OR 드롭박스 OR Dropbox OR 원드라이브 OR 클라우드",
	"fitness":       "피트니스 OR fitness OR 헬스 OR health OR 운동 OR workout",
	"education":     "온라인교육 OR online education OR 학습플랫폼 OR 교육서비스",
	"gaming":        "게임패스 OR Game Pass OR 게이밍 OR gaming OR 게임서비스",
	"shopping":      "아마존 OR Amazon OR 이커머스 OR e-commerce OR 쇼핑서비스",
	"news":          "뉴스서비스 OR news service OR 뉴스구독 OR 미디어",
	"ai":            "챗GPT OR ChatGPT OR AI OR 인공지능 OR 클로드 OR Claude",
	"development":   "개발도구 OR development tools OR 코딩 OR programming OR 깃허브 OR GitHub",
}

// QueryFor returns the search expression for category.
func QueryFor(category string) string {
	if q, ok := queries[strings.ToLower(category)]; ok {
		return q
	}
	return defaultQuery
}

// ContainsKorean reports whether s has at least one Hangul syllable.
func ContainsKorean(s string) bool {
	for _, r := range s {
		if r >= 0xAC00 && r <= 0xD7A3 {
			return true
		}
	}
	return false
}
