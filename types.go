package beak

import "time"

// TweetAuthor identifies the account that posted a tweet.
type TweetAuthor struct {
	Username string `json:"username"`
	Name     string `json:"name"`
}

// TweetMedia describes one attached photo, video, or GIF.
type TweetMedia struct {
	Type       string `json:"type"` // photo, video, animated_gif
	URL        string `json:"url,omitempty"`
	PreviewURL string `json:"previewUrl,omitempty"`
	VideoURL   string `json:"videoUrl,omitempty"`
	Width      int    `json:"width,omitempty"`
	Height     int    `json:"height,omitempty"`
	DurationMs int    `json:"durationMs,omitempty"`
}

// Tweet is a single tweet as rendered by the timeline endpoints.
type Tweet struct {
	ID                string       `json:"id"`
	Text              string       `json:"text"`
	Author            TweetAuthor  `json:"author"`
	AuthorID          string       `json:"authorId,omitempty"`
	CreatedAt         time.Time    `json:"createdAt"`
	ReplyCount        int          `json:"replyCount"`
	RetweetCount      int          `json:"retweetCount"`
	LikeCount         int          `json:"likeCount"`
	ConversationID    string       `json:"conversationId,omitempty"`
	InReplyToStatusID string       `json:"inReplyToStatusId,omitempty"`
	QuotedTweet       *Tweet       `json:"quotedTweet,omitempty"`
	Media             []TweetMedia `json:"media,omitempty"`
}

// TwitterUser is an account profile as returned by user list endpoints.
type TwitterUser struct {
	ID              string    `json:"id"`
	Username        string    `json:"username"`
	Name            string    `json:"name"`
	Description     string    `json:"description,omitempty"`
	FollowersCount  int       `json:"followersCount"`
	FollowingCount  int       `json:"followingCount"`
	IsBlueVerified  bool      `json:"isBlueVerified"`
	ProfileImageURL string    `json:"profileImageUrl,omitempty"`
	CreatedAt       time.Time `json:"createdAt,omitempty"`
}

// TwitterList is a list summary from the list endpoints.
type TwitterList struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Description     string `json:"description,omitempty"`
	MemberCount     int    `json:"memberCount"`
	SubscriberCount int    `json:"subscriberCount"`
	IsPrivate       bool   `json:"isPrivate"`
	OwnerUsername   string `json:"ownerUsername,omitempty"`
}

// OperationEntry binds a logical GraphQL operation name to the opaque
// query ID the upstream currently assigns to it. Query IDs rotate without
// notice; LastVerifiedAt records when the binding was last confirmed.
type OperationEntry struct {
	OperationName  string    `json:"operationName"`
	QueryID        string    `json:"queryId"`
	LastVerifiedAt time.Time `json:"lastVerifiedAt"`
}
