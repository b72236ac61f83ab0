package beak

import "fmt"

const (
	graphqlBase = "https://x.com/i/api/graphql"
	legacyBase  = "https://x.com/i/api/1.1"

	legacyStatusUpdateURL = legacyBase + "/statuses/update.json"
	accountSettingsURL    = "https://x.com/i/api/account/settings.json"
)

// bearerToken is the public web-app bearer token; real identity comes from
// the auth_token/ct0 cookie pair.
const bearerToken = "AAAAAAAAAAAAAAAAAAAAANRILgAAAAAAnNwIzUejRCOuH5E6I8xnZz4puTs%3D1Zv7ttfk8LF81IUq16cHjhLTvJu4FA33AGWWjCpTnA"

// Endpoint describes one logical GraphQL operation: HTTP shape, feature
// flags, and whether it mutates state (write operations are the ones the
// anti-automation check applies to).
type Endpoint struct {
	Name     string
	Method   string
	Write    bool
	Features map[string]any
}

// Endpoints is the full set of operations the client knows how to issue.
// Seed query IDs live in defaultQueryIDs; the registry takes over from there.
var Endpoints = map[string]Endpoint{
	"CreateTweet":              {Name: "CreateTweet", Method: "POST", Write: true, Features: tweetCreateFeatures()},
	"CreateRetweet":            {Name: "CreateRetweet", Method: "POST", Write: true},
	"FavoriteTweet":            {Name: "FavoriteTweet", Method: "POST", Write: true},
	"DeleteBookmark":           {Name: "DeleteBookmark", Method: "POST", Write: true},
	"TweetDetail":              {Name: "TweetDetail", Method: "GET", Features: timelineFeatures()},
	"UserByScreenName":         {Name: "UserByScreenName", Method: "GET", Features: timelineFeatures()},
	"SearchTimeline":           {Name: "SearchTimeline", Method: "POST", Features: timelineFeatures()},
	"Bookmarks":                {Name: "Bookmarks", Method: "GET", Features: timelineFeatures()},
	"BookmarkFolderTimeline":   {Name: "BookmarkFolderTimeline", Method: "GET", Features: timelineFeatures()},
	"Likes":                    {Name: "Likes", Method: "GET", Features: timelineFeatures()},
	"Following":                {Name: "Following", Method: "GET", Features: timelineFeatures()},
	"Followers":                {Name: "Followers", Method: "GET", Features: timelineFeatures()},
	"ListOwnerships":           {Name: "ListOwnerships", Method: "GET", Features: timelineFeatures()},
	"ListMemberships":          {Name: "ListMemberships", Method: "GET", Features: timelineFeatures()},
	"ListLatestTweetsTimeline": {Name: "ListLatestTweetsTimeline", Method: "GET", Features: timelineFeatures()},
	"ListByRestId":             {Name: "ListByRestId", Method: "GET", Features: timelineFeatures()},
	"UserArticlesTweets":       {Name: "UserArticlesTweets", Method: "GET", Features: timelineFeatures()},
}

// defaultQueryIDs seeds the registry on first use. These rotate upstream;
// the registry refresh re-derives them from the current web bundles.
var defaultQueryIDs = map[string]string{
	"CreateTweet":              "TAJw1rBsjAtdNgTdlo2oeg",
	"CreateRetweet":            "ojPdsZsimiJrUGLR1sjUtA",
	"FavoriteTweet":            "lI07N6Otwv1PhnEgXILM7A",
	"DeleteBookmark":           "Wlmlj2-xzyS1GN3a6cj-mQ",
	"TweetDetail":              "97JF30KziU00483E_8elBA",
	"UserByScreenName":         "G3KGOASz96M-Qu0nwmGXNg",
	"SearchTimeline":           "M1jEez78PEfVfbQLvlWMvQ",
	"Bookmarks":                "RV1g3b8n_SGOHwkqKYSCFw",
	"BookmarkFolderTimeline":   "KJIQpsvxrTfRIlbaRIySHQ",
	"Likes":                    "JR2gceKucIKcVNB_9JkhsA",
	"Following":                "BEkNpEt5pNETESoqMsTEGA",
	"Followers":                "kuFUYP9eV1FPoEy4N-pi7w",
	"ListOwnerships":           "wQcOSjSQ8NtgxIwvYl1lMg",
	"ListMemberships":          "BlEXXdARdSeL_0KyKHHvvg",
	"ListLatestTweetsTimeline": "2TemLyqrMpTeAmysdbnVqw",
	"ListByRestId":             "wXzyA5vM_aVkBL9G8Vp3kw",
	"UserArticlesTweets":       "8zBy9h4L90aDL02RsBcCFg",
}

// OperationNames returns the logical names the registry tracks.
func OperationNames() []string {
	names := make([]string, 0, len(defaultQueryIDs))
	for name := range defaultQueryIDs {
		names = append(names, name)
	}
	return names
}

// operationURL builds the GraphQL URL for an operation under a given query ID.
func operationURL(queryID, operation string) string {
	return fmt.Sprintf("%s/%s/%s", graphqlBase, queryID, operation)
}

// timelineFeatures returns the feature flags the web client sends with
// timeline reads. The upstream rejects requests missing flags it considers
// mandatory, so the set errs on the side of completeness.
func timelineFeatures() map[string]any {
	return map[string]any{
		"articles_preview_enabled":                                                false,
		"c9s_tweet_anatomy_moderator_badge_enabled":                               true,
		"communities_web_enable_tweet_community_results_fetch":                    true,
		"creator_subscriptions_quote_tweet_preview_enabled":                       false,
		"creator_subscriptions_tweet_preview_api_enabled":                         true,
		"freedom_of_speech_not_reach_fetch_enabled":                               true,
		"graphql_is_translatable_rweb_tweet_is_translatable_enabled":              true,
		"graphql_timeline_v2_bookmark_timeline":                                   true,
		"longform_notetweets_consumption_enabled":                                 true,
		"longform_notetweets_inline_media_enabled":                                true,
		"longform_notetweets_rich_text_read_enabled":                              true,
		"premium_content_api_read_enabled":                                        false,
		"profile_label_improvements_pcf_label_in_post_enabled":                    false,
		"responsive_web_edit_tweet_api_enabled":                                   true,
		"responsive_web_enhance_cards_enabled":                                    false,
		"responsive_web_graphql_exclude_directive_enabled":                        true,
		"responsive_web_graphql_skip_user_profile_image_extensions_enabled":       false,
		"responsive_web_graphql_timeline_navigation_enabled":                      true,
		"responsive_web_grok_analyze_button_fetch_trends_enabled":                 false,
		"responsive_web_grok_analyze_post_followups_enabled":                      false,
		"responsive_web_grok_image_annotation_enabled":                            false,
		"responsive_web_grok_share_attachment_enabled":                            false,
		"responsive_web_media_download_video_enabled":                             false,
		"responsive_web_twitter_article_tweet_consumption_enabled":                true,
		"rweb_tipjar_consumption_enabled":                                         true,
		"rweb_video_timestamps_enabled":                                           true,
		"standardized_nudges_misinfo":                                             true,
		"tweet_awards_web_tipping_enabled":                                        false,
		"tweet_with_visibility_results_prefer_gql_limited_actions_policy_enabled": true,
		"tweet_with_visibility_results_prefer_gql_media_interstitial_enabled":     false,
		"tweetypie_unmention_optimization_enabled":                                true,
		"verified_phone_label_enabled":                                            false,
		"view_counts_everywhere_api_enabled":                                      true,
	}
}

// tweetCreateFeatures returns the flags the compose box sends with CreateTweet.
func tweetCreateFeatures() map[string]any {
	f := timelineFeatures()
	f["responsive_web_jetfuel_frame"] = false
	f["responsive_web_grok_analysis_button_from_backend"] = false
	f["responsive_web_grok_community_note_auto_translation_is_enabled"] = false
	f["post_share_permissions_enabled"] = false
	return f
}
