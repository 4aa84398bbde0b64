package irc

type kind int

const (
	kindReply kind = iota
	kindError
)

type numericInfo struct {
	name string
	kind kind
}

// numericRange assigns a kind to codes that are absent from numerics
type numericRange struct {
	low, high int
	kind      kind
}

// Server software disagrees on where replies stop and errors begin, so the
// partition is data: explicit entries first, then these ranges
var numericRanges = []numericRange{
	{1, 399, kindReply},
	{400, 599, kindError},
	{600, 999, kindReply},
}

// Numerics used by the client and console
const (
	RplWelcome        = 1
	RplYourHost       = 2
	RplCreated        = 3
	RplMyInfo         = 4
	RplISupport       = 5
	RplUModeIs        = 221
	RplAway           = 301
	RplUnAway         = 305
	RplNowAway        = 306
	RplWhoisUser      = 311
	RplWhoisServer    = 312
	RplWhoisOperator  = 313
	RplEndOfWho       = 315
	RplWhoisIdle      = 317
	RplEndOfWhois     = 318
	RplWhoisChannels  = 319
	RplListStart      = 321
	RplList           = 322
	RplListEnd        = 323
	RplChannelModeIs  = 324
	RplNoTopic        = 331
	RplTopic          = 332
	RplTopicWhoTime   = 333
	RplInviting       = 341
	RplVersion        = 351
	RplWhoReply       = 352
	RplNamReply       = 353
	RplLinks          = 364
	RplEndOfLinks     = 365
	RplEndOfNames     = 366
	RplBanList        = 367
	RplEndOfBanList   = 368
	RplMotd           = 372
	RplMotdStart      = 375
	RplEndOfMotd      = 376
	RplYoureOper      = 381
	ErrNoSuchNick     = 401
	ErrNoSuchServer   = 402
	ErrNoSuchChannel  = 403
	ErrCannotSendChan = 404
	ErrTooManyChans   = 405
	ErrNoRecipient    = 411
	ErrNoTextToSend   = 412
	ErrUnknownCommand = 421
	ErrNoMotd         = 422
	ErrNoNickGiven    = 431
	ErrErroneousNick  = 432
	ErrNicknameInUse  = 433
	ErrNickCollision  = 436
	ErrUserNotInChan  = 441
	ErrNotOnChannel   = 442
	ErrUserOnChannel  = 443
	ErrNotRegistered  = 451
	ErrNeedMoreParams = 461
	ErrAlreadyReg     = 462
	ErrPasswdMismatch = 464
	ErrYoureBanned    = 465
	ErrChannelIsFull  = 471
	ErrUnknownMode    = 472
	ErrInviteOnlyChan = 473
	ErrBannedFromChan = 474
	ErrBadChannelKey  = 475
	ErrNoPrivileges   = 481
	ErrChanOPrivsNeed = 482
	ErrUModeUnknown   = 501
	ErrUsersDontMatch = 502
)

var numerics = map[int]numericInfo{
	RplWelcome:        {"RPL_WELCOME", kindReply},
	RplYourHost:       {"RPL_YOURHOST", kindReply},
	RplCreated:        {"RPL_CREATED", kindReply},
	RplMyInfo:         {"RPL_MYINFO", kindReply},
	RplISupport:       {"RPL_ISUPPORT", kindReply},
	RplUModeIs:        {"RPL_UMODEIS", kindReply},
	RplAway:           {"RPL_AWAY", kindReply},
	RplUnAway:         {"RPL_UNAWAY", kindReply},
	RplNowAway:        {"RPL_NOWAWAY", kindReply},
	RplWhoisUser:      {"RPL_WHOISUSER", kindReply},
	RplWhoisServer:    {"RPL_WHOISSERVER", kindReply},
	RplWhoisOperator:  {"RPL_WHOISOPERATOR", kindReply},
	RplEndOfWho:       {"RPL_ENDOFWHO", kindReply},
	RplWhoisIdle:      {"RPL_WHOISIDLE", kindReply},
	RplEndOfWhois:     {"RPL_ENDOFWHOIS", kindReply},
	RplWhoisChannels:  {"RPL_WHOISCHANNELS", kindReply},
	RplListStart:      {"RPL_LISTSTART", kindReply},
	RplList:           {"RPL_LIST", kindReply},
	RplListEnd:        {"RPL_LISTEND", kindReply},
	RplChannelModeIs:  {"RPL_CHANNELMODEIS", kindReply},
	RplNoTopic:        {"RPL_NOTOPIC", kindReply},
	RplTopic:          {"RPL_TOPIC", kindReply},
	RplTopicWhoTime:   {"RPL_TOPICWHOTIME", kindReply},
	RplInviting:       {"RPL_INVITING", kindReply},
	RplVersion:        {"RPL_VERSION", kindReply},
	RplWhoReply:       {"RPL_WHOREPLY", kindReply},
	RplNamReply:       {"RPL_NAMREPLY", kindReply},
	RplLinks:          {"RPL_LINKS", kindReply},
	RplEndOfLinks:     {"RPL_ENDOFLINKS", kindReply},
	RplEndOfNames:     {"RPL_ENDOFNAMES", kindReply},
	RplBanList:        {"RPL_BANLIST", kindReply},
	RplEndOfBanList:   {"RPL_ENDOFBANLIST", kindReply},
	RplMotd:           {"RPL_MOTD", kindReply},
	RplMotdStart:      {"RPL_MOTDSTART", kindReply},
	RplEndOfMotd:      {"RPL_ENDOFMOTD", kindReply},
	RplYoureOper:      {"RPL_YOUREOPER", kindReply},
	ErrNoSuchNick:     {"ERR_NOSUCHNICK", kindError},
	ErrNoSuchServer:   {"ERR_NOSUCHSERVER", kindError},
	ErrNoSuchChannel:  {"ERR_NOSUCHCHANNEL", kindError},
	ErrCannotSendChan: {"ERR_CANNOTSENDTOCHAN", kindError},
	ErrTooManyChans:   {"ERR_TOOMANYCHANNELS", kindError},
	ErrNoRecipient:    {"ERR_NORECIPIENT", kindError},
	ErrNoTextToSend:   {"ERR_NOTEXTTOSEND", kindError},
	ErrUnknownCommand: {"ERR_UNKNOWNCOMMAND", kindError},
	ErrNoMotd:         {"ERR_NOMOTD", kindError},
	ErrNoNickGiven:    {"ERR_NONICKNAMEGIVEN", kindError},
	ErrErroneousNick:  {"ERR_ERRONEUSNICKNAME", kindError},
	ErrNicknameInUse:  {"ERR_NICKNAMEINUSE", kindError},
	ErrNickCollision:  {"ERR_NICKCOLLISION", kindError},
	ErrUserNotInChan:  {"ERR_USERNOTINCHANNEL", kindError},
	ErrNotOnChannel:   {"ERR_NOTONCHANNEL", kindError},
	ErrUserOnChannel:  {"ERR_USERONCHANNEL", kindError},
	ErrNotRegistered:  {"ERR_NOTREGISTERED", kindError},
	ErrNeedMoreParams: {"ERR_NEEDMOREPARAMS", kindError},
	ErrAlreadyReg:     {"ERR_ALREADYREGISTRED", kindError},
	ErrPasswdMismatch: {"ERR_PASSWDMISMATCH", kindError},
	ErrYoureBanned:    {"ERR_YOUREBANNEDCREEP", kindError},
	ErrChannelIsFull:  {"ERR_CHANNELISFULL", kindError},
	ErrUnknownMode:    {"ERR_UNKNOWNMODE", kindError},
	ErrInviteOnlyChan: {"ERR_INVITEONLYCHAN", kindError},
	ErrBannedFromChan: {"ERR_BANNEDFROMCHAN", kindError},
	ErrBadChannelKey:  {"ERR_BADCHANNELKEY", kindError},
	ErrNoPrivileges:   {"ERR_NOPRIVILEGES", kindError},
	ErrChanOPrivsNeed: {"ERR_CHANOPRIVSNEEDED", kindError},
	ErrUModeUnknown:   {"ERR_UMODEUNKNOWNFLAG", kindError},
	ErrUsersDontMatch: {"ERR_USERSDONTMATCH", kindError},
}

func numericKind(code int) kind {
	if info, ok := numerics[code]; ok {
		return info.kind
	}
	for _, r := range numericRanges {
		if code >= r.low && code <= r.high {
			return r.kind
		}
	}
	return kindReply
}
