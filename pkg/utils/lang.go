package utils

import (
	"github.com/abadojack/whatlanggo"
)

var whatLangOpts = whatlanggo.Options{
	Whitelist: map[whatlanggo.Lang]bool{
		whatlanggo.Eng: true,
		whatlanggo.Cmn: true,
	},
}

func WhatLang(query string) string {
	info := whatlanggo.DetectWithOptions(query, whatLangOpts)
	return info.Lang.String()
}

// IsChineseText 判断文本是否以中文为主，用于选择提示词模板
func IsChineseText(query string) bool {
	info := whatlanggo.DetectWithOptions(query, whatLangOpts)
	return info.Lang == whatlanggo.Cmn
}
